package repository

import (
	"fmt"
	"strings"
	"time"
)

// Dialect はSQLリポジトリが対象とするデータベースの方言を表す。
// クエリはPostgreSQLの$N形式で記述し、方言ごとに書き換える。
type Dialect string

const (
	// DialectPostgres はlib/pq経由のPostgreSQL。
	DialectPostgres Dialect = "postgres"
	// DialectSQLite はmodernc.org/sqlite経由のSQLite。
	DialectSQLite Dialect = "sqlite"
)

// rebind は$N形式のプレースホルダを方言に合わせて書き換える。
// SQLiteは?NNN形式の番号付きパラメータを位置引数として扱う。
func (d Dialect) rebind(query string) string {
	if d == DialectSQLite {
		return strings.ReplaceAll(query, "$", "?")
	}
	return query
}

// sqliteTimeLayouts はSQLiteにテキストで保存された日時の書式。
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// timeScanner はtime.Timeまたは日時文字列の列値をtime.Timeに読み取る。
// SQLiteではRETURNING句の列に宣言型が付かず、文字列のまま返る場合がある。
type timeScanner struct {
	dest *time.Time
}

// Scan はsql.Scannerを実装する。
func (s timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*s.dest = v
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return fmt.Errorf("日時として読み取れない値です: %T", src)
	}
}

func (s timeScanner) parse(v string) error {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*s.dest = t
			return nil
		}
	}
	return fmt.Errorf("日時の解析に失敗しました: %q", v)
}
