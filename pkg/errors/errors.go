package errors

import "errors"

// ErrStatusConflict 条件更新未命中：存储的 user_status 已不是预期的前置状态
var ErrStatusConflict = errors.New("user status changed by another request")
