package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/store"
	"github.com/gin-gonic/gin"
)

const (
	minGuests        = 1
	maxGuests        = 6
	maxMessageLength = 2000
)

var validScheduleTime = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)

// validateReservation normalizes req and checks it against now in loc.
func validateReservation(req *models.ReservationRequest, now time.Time, loc *time.Location) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Guests == 0 {
		req.Guests = minGuests
	}

	var errs []error
	if req.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, errors.New("a valid email is required"))
	}
	if req.Phone == "" {
		errs = append(errs, errors.New("phone is required"))
	}
	if req.Guests < minGuests || req.Guests > maxGuests {
		errs = append(errs, fmt.Errorf("guests must be between %d and %d", minGuests, maxGuests))
	}
	if !validScheduleTime.MatchString(req.Time) {
		errs = append(errs, fmt.Errorf("invalid time format: need 19:30, got %q", req.Time))
	}
	if _, err := time.ParseInLocation(time.DateOnly, req.Date, loc); err != nil {
		errs = append(errs, fmt.Errorf("invalid date format: need 2006-01-02, got %q", req.Date))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	at, err := store.Reservation{Date: req.Date, Time: req.Time}.At(loc)
	if err != nil {
		return err
	}
	if at.Before(now) {
		return errors.New("reservation must be in the future")
	}
	return nil
}

func (ws *WebServer) handleCreateReservation(c *gin.Context) {
	var req models.ReservationRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := validateReservation(&req, ws.now(), ws.loc); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	reservation := &store.Reservation{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Date:   req.Date,
		Time:   req.Time,
		Guests: req.Guests,
	}
	if err := ws.db.InsertReservation(reservation); err != nil {
		respondError(c, storeErrorStatus(err), fmt.Sprintf("Failed to save reservation: %v", err))
		return
	}

	if isHTMX(c) {
		c.String(http.StatusCreated, "Reserva enviada com sucesso! Entraremos em contato para confirmar.")
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

func (ws *WebServer) handleListReservations(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", store.StatusPending, store.StatusConfirmed, store.StatusCancelled:
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("unknown status %q", status)})
		return
	}

	reservations, err := ws.db.GetReservations(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get reservations: %v", err)})
		return
	}
	if reservations == nil {
		reservations = []store.Reservation{}
	}
	c.JSON(http.StatusOK, reservations)
}

func (ws *WebServer) handleUpdateReservationStatus(c *gin.Context) {
	id := c.Param("id")

	var req models.ReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	switch req.Status {
	case store.StatusPending, store.StatusConfirmed, store.StatusCancelled:
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("unknown status %q", req.Status)})
		return
	}

	if err := ws.db.UpdateReservationStatus(id, req.Status); err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to update reservation: %v", err)})
		return
	}
	reservation, err := ws.db.GetReservation(id)
	if err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to retrieve reservation: %v", err)})
		return
	}
	c.JSON(http.StatusOK, reservation)
}

func (ws *WebServer) handleDeleteReservation(c *gin.Context) {
	id := c.Param("id")
	if err := ws.db.DeleteReservation(id); err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to delete reservation: %v", err)})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Reservation '%s' deleted successfully", id)})
}

func validateContact(req *models.ContactRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	var errs []error
	if req.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, errors.New("a valid email is required"))
	}
	switch n := utf8.RuneCountInString(req.Message); {
	case n == 0:
		errs = append(errs, errors.New("message is required"))
	case n > maxMessageLength:
		errs = append(errs, fmt.Errorf("message must be at most %d characters", maxMessageLength))
	}
	return errors.Join(errs...)
}

func (ws *WebServer) handleCreateContact(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := validateContact(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	msg := &store.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := ws.db.InsertContactMessage(msg); err != nil {
		respondError(c, storeErrorStatus(err), fmt.Sprintf("Failed to save message: %v", err))
		return
	}

	if isHTMX(c) {
		c.String(http.StatusCreated, "Mensagem enviada com sucesso!")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (ws *WebServer) handleListMessages(c *gin.Context) {
	messages, err := ws.db.GetContactMessages()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get messages: %v", err)})
		return
	}
	if messages == nil {
		messages = []store.ContactMessage{}
	}
	c.JSON(http.StatusOK, messages)
}

func (ws *WebServer) handleMarkMessageRead(c *gin.Context) {
	id := c.Param("id")

	req := models.MarkReadRequest{Read: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
			return
		}
	}

	if err := ws.db.MarkContactMessageRead(id, req.Read); err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to update message: %v", err)})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Message '%s' updated", id)})
}

func (ws *WebServer) handleDeleteMessage(c *gin.Context) {
	id := c.Param("id")
	if err := ws.db.DeleteContactMessage(id); err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to delete message: %v", err)})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Message '%s' deleted successfully", id)})
}
