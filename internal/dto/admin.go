package dto

// ChangeRoleRequest 修改用户角色
type ChangeRoleRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Role   string `json:"role"   binding:"required,oneof=user admin"`
}

// ChangeRoleResponse 修改角色结果
type ChangeRoleResponse struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}
