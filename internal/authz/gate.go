// Package authz は管理者権限と所有権に基づく認可判定を提供する。
// 判定は例外やHTTP応答ではなく値として返すため、トランスポートに依存せず
// テストできる。副作用を伴う処理の前に必ず判定を行うこと。
package authz

import "github.com/hitoshi/comicshelf/internal/model"

// Decision は認可判定の結果を表す。
type Decision string

const (
	// DecisionAllow は操作の実行を許可する判定。
	DecisionAllow Decision = "allow"
	// DecisionForbidden は操作の実行を拒否する判定。
	DecisionForbidden Decision = "forbidden"
)

// Allowed は判定が許可かどうかを返す。
func (d Decision) Allowed() bool {
	return d == DecisionAllow
}

// RequireAdmin は管理者のみ許可する判定を行う。
// ユーザーが未解決（nil）の場合も拒否する。
func RequireAdmin(user *model.User) Decision {
	if user == nil || !user.IsAdmin {
		return DecisionForbidden
	}
	return DecisionAllow
}

// RequireOwnerOrAdmin はリソース所有者または管理者のみ許可する判定を行う。
// 非管理者にとって所有権が唯一の認可経路となる。
func RequireOwnerOrAdmin(user *model.User, resourceOwnerID string) Decision {
	if user == nil {
		return DecisionForbidden
	}
	if user.IsAdmin {
		return DecisionAllow
	}
	if user.ID == resourceOwnerID {
		return DecisionAllow
	}
	return DecisionForbidden
}
