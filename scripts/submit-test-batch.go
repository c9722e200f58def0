// Dev helper: signs and submits a sample game to a locally running server,
// then queries it back. Run with HMAC_KEY_HEX set to the server's key.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const apiBase = "http://localhost:8080/api"

type Build struct {
	League  string `json:"league"`
	Phase   string `json:"phase"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
	MatchID int    `json:"match_id"`
	GameI   int    `json:"game_i"`
	Win     bool   `json:"win"`
	Minutes int    `json:"minutes"`
	Seconds int    `json:"seconds"`

	KDARatio float64 `json:"kda_ratio"`
	Kills    int     `json:"kills"`
	Deaths   int     `json:"deaths"`
	Assists  int     `json:"assists"`

	Role    string `json:"role"`
	Player1 string `json:"player1"`
	God1    string `json:"god1"`
	Team1   string `json:"team1"`
	Player2 string `json:"player2"`
	God2    string `json:"god2"`
	Team2   string `json:"team2"`

	Relics [][2]string `json:"relics"`
	Items  [][2]string `json:"items"`
}

func main() {
	keyHex := os.Getenv("HMAC_KEY_HEX")
	if keyHex == "" {
		fmt.Println("HMAC_KEY_HEX is not set")
		os.Exit(1)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		fmt.Printf("HMAC_KEY_HEX is not valid hex: %v\n", err)
		os.Exit(1)
	}

	payload, err := json.Marshal(map[string]any{
		"builds":               sampleGame(900),
		"last_checked_tooltip": "submitted by scripts/submit-test-batch.go",
	})
	if err != nil {
		fmt.Printf("marshal: %v\n", err)
		os.Exit(1)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(payload)

	req, err := http.NewRequest(http.MethodPost, apiBase+"/builds", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-HMAC-Digest-Hex", hex.EncodeToString(mac.Sum(nil)))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("POST /builds: %v\n", err)
		os.Exit(1)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	fmt.Printf("POST /builds: %s %s\n", resp.Status, string(body))

	resp, err = http.Get(apiBase + "/builds?team1=Test+Jade")
	if err != nil {
		fmt.Printf("GET /builds: %v\n", err)
		os.Exit(1)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	fmt.Printf("GET /builds: %s\n%s\n", resp.Status, string(body))
}

func sampleGame(match int) []Build {
	roles := []string{"ADC", "Jungle", "Mid", "Solo", "Support"}
	gods := []string{"Artemis", "Thor", "Anubis", "Chaac", "Ymir",
		"Medusa", "Loki", "Ra", "Amaterasu", "Ganesha"}

	var builds []Build
	for t, team := range []string{"Test Jade", "Test Onyx"} {
		opp := 1 - t
		oppTeam := []string{"Test Jade", "Test Onyx"}[opp]
		for i, role := range roles {
			builds = append(builds, Build{
				League:  "SPL",
				Phase:   "Test Phase",
				Month:   5, Day: 20,
				MatchID: match,
				GameI:   1,
				Win:     t == 0,
				Minutes: 31, Seconds: 42,
				KDARatio: 2.0,
				Kills:    3, Deaths: 2, Assists: 5,
				Role:    role,
				Player1: fmt.Sprintf("%s Player %d", team, i+1),
				God1:    gods[t*5+i],
				Team1:   team,
				Player2: fmt.Sprintf("%s Player %d", oppTeam, i+1),
				God2:    gods[opp*5+i],
				Team2:   oppTeam,
				Relics: [][2]string{
					{"Purification Beads", "purification-beads.jpg"},
					{"Blink Rune", "blink-rune.jpg"},
				},
				Items: [][2]string{
					{"Warrior Tabi", "warrior-tabi.jpg"},
					{"Jotunn's Wrath", "jotunns-wrath.jpg"},
				},
			})
		}
	}
	return builds
}
