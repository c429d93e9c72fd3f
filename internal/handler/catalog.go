package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/astren/internal/model"
)

// GetMenu возвращает позиции меню, при необходимости отфильтрованные по категории.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	items := h.service.Menu(category)
	if items == nil {
		items = []model.MenuItem{}
	}

	h.writeJSON(w, http.StatusOK, items)
}

// GetDeals возвращает акции с признаками доступности на текущий момент.
func (h *Handler) GetDeals(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.DealBadges())
}

// StreamDeals отдаёт изменения доступности акций как server-sent events,
// пока клиент не отключится или сервер не начнёт остановку.
func (h *Handler) StreamDeals(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	updates, unsubscribe := h.service.SubscribeDeals()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.streamsDone:
			return
		case badges, ok := <-updates:
			if !ok {
				return
			}

			data, err := json.Marshal(badges)
			if err != nil {
				h.logger.Error("marshal deals event error", zap.Error(err))
				return
			}

			if _, err := fmt.Fprintf(w, "event: deals\ndata: %s\n\n", data); err != nil {
				h.logger.Debug("deals stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}
