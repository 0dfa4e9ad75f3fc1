package handler

import (
	"gamerank/backend/internal/config"
	"gamerank/backend/internal/hub"
	"gamerank/backend/internal/importer"
	"gamerank/backend/internal/media"
	"gamerank/backend/internal/store"
)

// Handler holds the dependencies shared by every route.
type Handler struct {
	Store    store.Store
	Config   *config.Config
	Media    media.Uploader // nil when uploads are disabled
	Importer *importer.Importer
	Hub      *hub.Hub
}

func New(s store.Store, cfg *config.Config, uploader media.Uploader) *Handler {
	return &Handler{
		Store:    s,
		Config:   cfg,
		Media:    uploader,
		Importer: importer.New(s),
		Hub:      hub.New(),
	}
}
