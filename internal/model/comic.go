// Package model はドメインモデルを定義する。
package model

import "time"

// Comic はカタログに登録されたコミックを表す。
// DescriptionはサニタイズされたHTML。Imageは任意のカバー画像URL。
type Comic struct {
	ID          string
	Title       string
	Description string
	Author      string
	Genre       string
	Image       string // 空文字は未設定を表す
	Status      ComicStatus
	Featured    bool
	Price       float64
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ComicStatus はコミックの公開状態を表す。
type ComicStatus string

const (
	// ComicStatusDraft は下書き状態。一般公開リストから除外可能。
	ComicStatusDraft ComicStatus = "draft"
	// ComicStatusPublished は公開状態。
	ComicStatusPublished ComicStatus = "published"
)

// ValidStatus はsがサポートされる公開状態かどうかを返す。
func ValidStatus(s string) bool {
	return s == string(ComicStatusDraft) || s == string(ComicStatusPublished)
}

// ComicOwner はコミック所有者の公開可能な識別情報を表す。
// 一般向けレスポンスに含めるためpassword等を持たない。
type ComicOwner struct {
	ID   string
	Name string
}

// ComicWithOwner はコミックと所有者情報を結合したモデル。
// usersテーブルとJOINして取得される。
type ComicWithOwner struct {
	Comic
	Owner ComicOwner
}

// CatalogStats は管理者向けのカタログ統計を表す。
// 3つのカウントは同一トランザクション内で取得される。
type CatalogStats struct {
	TotalComics     int
	TotalUsers      int
	PublishedComics int
}

// Genres はカタログがサポートするジャンルの一覧。
// GET /categories で返される静的リスト。
var Genres = []string{
	"Action",
	"Adventure",
	"Comedy",
	"Drama",
	"Fantasy",
	"Horror",
	"Mystery",
	"Romance",
	"Sci-Fi",
	"Slice of Life",
	"Superhero",
}
