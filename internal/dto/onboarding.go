package dto

// PageAccessResponse 页面访问判定
type PageAccessResponse struct {
	Allow          bool   `json:"allow"`
	RedirectTarget string `json:"redirectTarget,omitempty"`
}
