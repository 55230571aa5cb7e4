package api

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/store"
	"github.com/gin-gonic/gin"
)

const recentActivityLimit = 5

// BuildDashboard summarizes reservations and messages as of now. The next
// reservation is the earliest pending or confirmed one not yet past.
func BuildDashboard(reservations []store.Reservation, messages []store.ContactMessage, menuItems, galleryPhotos int, now time.Time, loc *time.Location) models.DashboardResponse {
	resp := models.DashboardResponse{
		Messages:       len(messages),
		MenuItems:      menuItems,
		GalleryPhotos:  galleryPhotos,
		RecentActivity: []models.Activity{},
	}

	var nextAt time.Time
	for i, r := range reservations {
		if r.Status == store.StatusPending {
			resp.PendingReservations++
		}
		if r.Status == store.StatusCancelled {
			continue
		}
		at, err := r.At(loc)
		if err != nil || at.Before(now) {
			continue
		}
		if resp.NextReservation == nil || at.Before(nextAt) {
			resp.NextReservation = &reservations[i]
			nextAt = at
		}
	}

	activity := make([]models.Activity, 0, len(reservations)+len(messages))
	for _, r := range reservations {
		activity = append(activity, models.Activity{
			ID:          r.ID,
			Kind:        models.ActivityReservation,
			Name:        r.Name,
			Status:      r.Status,
			SubmittedAt: r.SubmittedAt,
		})
	}
	for _, m := range messages {
		if !m.Read {
			resp.UnreadMessages++
		}
		activity = append(activity, models.Activity{
			ID:          m.ID,
			Kind:        models.ActivityContact,
			Name:        m.Name,
			SubmittedAt: m.SubmittedAt,
		})
	}
	slices.SortStableFunc(activity, func(a, b models.Activity) int {
		return b.SubmittedAt.Compare(a.SubmittedAt)
	})
	if len(activity) > recentActivityLimit {
		activity = activity[:recentActivityLimit]
	}
	resp.RecentActivity = append(resp.RecentActivity, activity...)
	return resp
}

func (ws *WebServer) handleDashboard(c *gin.Context) {
	reservations, err := ws.db.GetReservations("")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get reservations: %v", err)})
		return
	}
	messages, err := ws.db.GetContactMessages()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get messages: %v", err)})
		return
	}
	menuItems, err := ws.db.GetMenuItemCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to count menu items: %v", err)})
		return
	}
	galleryPhotos, err := ws.db.GetGalleryPhotoCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to count gallery photos: %v", err)})
		return
	}

	c.JSON(http.StatusOK, BuildDashboard(reservations, messages, menuItems, galleryPhotos, ws.now(), ws.loc))
}
