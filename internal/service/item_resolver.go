package service

import (
	"context"
	"strings"

	"github.com/smitebuilds/backend/internal/domain"
	"github.com/smitebuilds/backend/internal/imagestore"
	"github.com/smitebuilds/backend/internal/repository"
	"go.uber.org/zap"
)

// backupImageNames maps icon filenames whose CDN URL is known-broken to a
// name that still resolves. Made for a renamed item whose new URL does not
// work; the CDN may fix itself someday, so the stored filename is not
// rewritten to the backup.
var backupImageNames = map[string]string{
	"manticores-spikes.jpg": "manticores-spike.jpg",
}

// itemKey identifies one distinct item reference within a batch. The image
// name is the repaired one, so references that only differ in the upstream's
// broken filename collapse to one key.
type itemKey struct {
	isRelic   bool
	name      string
	imageName string
}

// slotRef ties a build's loadout slot to a key in the batch's item list.
type slotRef struct {
	keyIdx int
	slot   int16
}

// pendingItem is an item key plus its downloaded (possibly absent) icon.
type pendingItem struct {
	key           itemKey
	origImageName string
	imageName     string // filename to store on the item row
	data          []byte
}

type itemResolver struct {
	fetcher  *imagestore.Fetcher
	archiver *imagestore.Archiver
}

// collectItemKeys uniquerizes every relic/item reference in the batch and
// records, per build, which key sits at which slot. Keys are de-duplicated
// before any network I/O so each distinct icon is downloaded at most once
// per batch; the key map is scoped to this call, never shared across
// ingestions.
func collectItemKeys(batch []ProposedBuild, log *zap.Logger) ([]itemKey, [][]slotRef, map[itemKey]string) {
	keyIdx := make(map[itemKey]int)
	origNames := make(map[itemKey]string)
	var keys []itemKey
	refs := make([][]slotRef, len(batch))

	for i := range batch {
		build := &batch[i]
		buildLog := log.With(zap.String("game", build.Game()))

		addRefs := func(itemRefs []ItemRef, isRelic bool) {
			for slot, ref := range itemRefs {
				key := itemKey{
					isRelic:   isRelic,
					name:      ref.Name,
					imageName: fixImageName(ref.Name, ref.ImageName, buildLog),
				}
				idx, ok := keyIdx[key]
				if !ok {
					idx = len(keys)
					keyIdx[key] = idx
					origNames[key] = ref.ImageName
					keys = append(keys, key)
				}
				refs[i] = append(refs[i], slotRef{keyIdx: idx, slot: int16(slot)})
			}
		}
		addRefs(build.Relics, true)
		addRefs(build.Items, false)
	}

	return keys, refs, origNames
}

// fixImageName derives the icon filename from the item name. When an item
// name contains a hyphen or a digit, the filename the upstream site
// generates drops it (e.g. "sturdy-stew-step-.jpg" instead of
// "sturdy-stew---step-2.jpg") and the download 404s, so the filename is
// rebuilt from the name itself: lower-cased, spaces to hyphens, apostrophes
// stripped, original extension kept.
func fixImageName(name, imageName string, log *zap.Logger) string {
	dot := strings.LastIndex(imageName, ".")
	if dot < 0 {
		log.Warn("icon filename has no extension", zap.String("image", imageName))
		return imageName
	}
	ext := imageName[dot+1:]

	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "'", "")
	fixed := slug + "." + ext

	if fixed != imageName {
		log.Info("icon filename repaired",
			zap.String("from", imageName), zap.String("to", fixed))
	}
	return fixed
}

// fetchAll downloads every distinct icon in the batch. Runs before the
// database transaction opens so row locks are never held across network
// waits. A missing icon yields nil data and is dealt with at upsert time.
func (r *itemResolver) fetchAll(ctx context.Context, keys []itemKey, origNames map[itemKey]string, log *zap.Logger) []pendingItem {
	pending := make([]pendingItem, len(keys))
	for i, key := range keys {
		pending[i] = r.fetchOne(ctx, key, origNames[key], log)
	}
	return pending
}

func (r *itemResolver) fetchOne(ctx context.Context, key itemKey, origName string, log *zap.Logger) pendingItem {
	p := pendingItem{key: key, origImageName: origName, imageName: key.imageName}

	if p.data = r.fetcher.FetchOrNone(ctx, key.imageName); p.data != nil {
		return p
	}

	if backup, ok := backupImageNames[key.imageName]; ok {
		if p.data = r.fetcher.FetchOrNone(ctx, backup); p.data != nil {
			log.Info("icon fetched via backup name",
				zap.String("image", key.imageName), zap.String("backup", backup))
			return p
		}
	}

	if origName != key.imageName {
		if p.data = r.fetcher.FetchOrNone(ctx, origName); p.data != nil {
			log.Warn("repaired icon name did not resolve, original did",
				zap.String("fixed", key.imageName), zap.String("original", origName))
			p.imageName = origName
			return p
		}
	}

	return p
}

// upsertAll turns pending items into persisted Item rows, creating Image
// rows as needed, and returns the item id per key index. Runs inside the
// ingestion transaction.
func (r *itemResolver) upsertAll(ctx context.Context, repos *repository.Repositories, pending []pendingItem, log *zap.Logger) ([]int64, error) {
	ids := make([]int64, len(pending))
	for i := range pending {
		id, err := r.upsertOne(ctx, repos, &pending[i], log)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (r *itemResolver) upsertOne(ctx context.Context, repos *repository.Repositories, p *pendingItem, log *zap.Logger) (int64, error) {
	var imageID *int64
	if p.data == nil {
		log.Warn("missing icon", zap.String("image", p.imageName))
	} else {
		id, err := r.upsertImage(ctx, repos, p, log)
		if err != nil {
			return 0, err
		}
		imageID = &id
	}

	name, variant := domain.NormalizeItemName(p.key.isRelic, p.key.name)

	item, err := repos.Item.FindByIdentity(ctx, p.key.isRelic, name, variant, p.imageName, imageID)
	if err != nil {
		return 0, err
	}
	if item != nil {
		return item.ID, nil
	}

	item = &domain.Item{
		IsRelic:   p.key.isRelic,
		Name:      name,
		Variant:   variant,
		ImageName: p.imageName,
		ImageID:   imageID,
	}
	if err := repos.Item.Create(ctx, item); err != nil {
		return 0, err
	}
	return item.ID, nil
}

// upsertImage deduplicates the compressed bytes against stored images: two
// icons fetched under different filenames collapse to one row when their
// bytes agree. The original bytes are archived once, only when compression
// actually changed them and the row is new.
func (r *itemResolver) upsertImage(ctx context.Context, repos *repository.Repositories, p *pendingItem, log *zap.Logger) (int64, error) {
	compressed, wasCompressed := imagestore.CompressOrRaw(p.data, p.imageName, log)

	image, err := repos.Image.FindByData(ctx, compressed)
	if err != nil {
		return 0, err
	}
	if image != nil {
		return image.ID, nil
	}

	image = &domain.Image{Data: compressed}
	if err := repos.Image.Create(ctx, image); err != nil {
		return 0, err
	}
	if wasCompressed {
		r.archiver.SaveOriginal(image.ID, p.imageName, p.data)
	}
	return image.ID, nil
}
