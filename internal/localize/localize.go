// Package localize translates source-language team names for display.
package localize

import (
	"encoding/json"
	"fmt"
	"os"
)

// Table maps source team names to display names.
// Unknown names are returned unchanged.
type Table map[string]string

// Name returns the display name for team, or team itself when there is no entry
func (t Table) Name(team string) string {
	if name, ok := t[team]; ok && name != "" {
		return name
	}
	return team
}

// Identity is a table with no entries
func Identity() Table {
	return Table{}
}

// DefaultJaZh returns the Japanese to Cantonese Premier League table
func DefaultJaZh() Table {
	return Table{
		"ルートンタウン":    "盧頓",
		"ブライトン":      "白禮頓",
		"ニューカッスル":    "鈕卡素",
		"クリスタル・パレス":  "水晶宮",
		"ウルヴァーハンプトン": "狼隊",
		"リヴァプール":     "利物浦",
		"アストン・ヴィラ":   "維拉",
		"アーセナル":      "阿仙奴",
		"マンチェスター・U":  "曼聯",
		"ウェストハム":     "西咸",
		"シェフィールド・U":  "錫菲聯",
		"エヴァートン":     "愛華頓",
		"ブレントフォード":   "賓福特",
		"ボーンマス":      "般尼茅夫",
		"バーンリー":      "般尼",
		"トッテナム":      "熱刺",
		"チェルシー":      "車路士",
		"フォレスト":      "諾定咸森林",
		"マンチェスター・C":  "曼城",
		"フラム":        "富咸",
	}
}

// Load reads a table from a JSON object file of {"source": "display"} pairs
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading team names: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing team names: %w", err)
	}
	if table == nil {
		table = Table{}
	}
	return table, nil
}

// Merge returns a new table with the entries of other overriding t
func (t Table) Merge(other Table) Table {
	merged := make(Table, len(t)+len(other))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
