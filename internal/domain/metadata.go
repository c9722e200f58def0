package domain

// Metadata is a small key-value table for bookkeeping rows such as
// last_modified and last_checked.
type Metadata struct {
	Key   string `json:"key" gorm:"size:50;primaryKey"`
	Value string `json:"value" gorm:"type:text;not null"`
}

func (Metadata) TableName() string {
	return "metadata"
}
