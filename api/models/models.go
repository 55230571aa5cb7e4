// Package models tracks all api models for request and responses
package models

import (
	"time"

	"github.com/floracafe/cafesite/slideshow"
	"github.com/floracafe/cafesite/store"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UploadResponse struct {
	Photo   store.GalleryPhoto `json:"photo"`
	Message string             `json:"message"`
}

type GalleryListResponse struct {
	Photos []store.GalleryPhoto `json:"photos"`
	Total  int                  `json:"total"`
	Page   int                  `json:"page"`
	Limit  int                  `json:"limit"`
}

type RegisterPhotoRequest struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	Source    string `json:"source"`
	ObjectKey string `json:"object_key"`
}

type RegisterPhotoResponse struct {
	Photo   store.GalleryPhoto `json:"photo"`
	Created bool               `json:"created"`
	Message string             `json:"message"`
}

type UpdatePhotoRequest struct {
	Alt string `json:"alt"`
}

type ReorderRequest struct {
	NewOrder int `json:"new_order"`
}

type GalleryStateResponse struct {
	State           slideshow.State `json:"state"`
	RotationEnabled bool            `json:"rotation_enabled"`
	IntervalMillis  int             `json:"interval_ms"`
	FadeMillis      int             `json:"fade_ms"`
}

type MenuItemRequest struct {
	Name        string  `json:"name" form:"name"`
	Description string  `json:"description" form:"description"`
	Price       float64 `json:"price" form:"price"`
	Category    string  `json:"category" form:"category"`
	ImageURL    string  `json:"image_url" form:"image_url"`
}

type DescribeRequest struct {
	Name string `json:"name" form:"name"`
}

type DescribeResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ReservationRequest struct {
	Name   string `json:"name" form:"name"`
	Email  string `json:"email" form:"email"`
	Phone  string `json:"phone" form:"phone"`
	Date   string `json:"date" form:"date"`
	Time   string `json:"time" form:"time"`
	Guests int    `json:"guests" form:"guests"`
}

type ReservationStatusRequest struct {
	Status string `json:"status"`
}

type ContactRequest struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Message string `json:"message" form:"message"`
}

type MarkReadRequest struct {
	Read bool `json:"read"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type StatusResponse struct {
	Open     bool   `json:"open"`
	Schedule bool   `json:"schedule_enabled"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type ActivityKind string

const (
	ActivityReservation ActivityKind = "reservation"
	ActivityContact     ActivityKind = "contact"
)

type Activity struct {
	ID          string       `json:"id"`
	Kind        ActivityKind `json:"kind"`
	Name        string       `json:"name"`
	Status      string       `json:"status,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

type DashboardResponse struct {
	PendingReservations int                `json:"pending_reservations"`
	NextReservation     *store.Reservation `json:"next_reservation"`
	Messages            int                `json:"messages"`
	UnreadMessages      int                `json:"unread_messages"`
	MenuItems           int                `json:"menu_items"`
	GalleryPhotos       int                `json:"gallery_photos"`
	RecentActivity      []Activity         `json:"recent_activity"`
}
