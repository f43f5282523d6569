package controllers

import "github.com/datallboy/newsreader/internal/domain"

type GroupsResponse struct {
	Groups []domain.GroupInfo `json:"groups"`
}

type ArticleIDsResponse struct {
	Group string   `json:"group"`
	IDs   []string `json:"ids"`
}

type ExistsResponse struct {
	ID     string `json:"id"`
	Group  string `json:"group,omitempty"`
	Exists bool   `json:"exists"`
}
