package store

import "time"

// Photo sources
const (
	SourceUpload = "upload"
	SourceRemote = "remote"
	SourceLocal  = "local"
)

type GalleryPhoto struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Alt       string    `json:"alt"`
	Source    string    `json:"source"`
	ObjectKey string    `json:"object_key,omitempty"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Menu categories
const (
	CategoryCoffee = "Cafés"
	CategorySavory = "Salgados"
	CategorySweets = "Doces"
	CategoryDrinks = "Bebidas"
)

var MenuCategories = []string{CategoryCoffee, CategorySavory, CategorySweets, CategoryDrinks}

type MenuItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reservation statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Reservation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Guests      int       `json:"guests"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// At returns the reservation's date and time in loc.
func (r Reservation) At(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.Time, loc)
}

type ContactMessage struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type SiteContent struct {
	Hero         HeroSection         `json:"hero"`
	About        AboutSection        `json:"about"`
	Gallery      GallerySection      `json:"gallery"`
	Reservations ReservationsSection `json:"reservations"`
	Location     LocationSection     `json:"location"`
	Contact      ContactSection      `json:"contact"`
	Instagram    InstagramSection    `json:"instagram"`
	Observations ObservationsSection `json:"observations"`
}

type HeroSection struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	ImageURL string `json:"image_url"`
}

type AboutSection struct {
	Title     string `json:"title"`
	Paragraph string `json:"paragraph"`
}

type GallerySection struct {
	Title string `json:"title"`
}

type ReservationsSection struct {
	Title     string `json:"title"`
	Paragraph string `json:"paragraph"`
}

type LocationSection struct {
	Title   string `json:"title"`
	Address string `json:"address"`
	Hours   string `json:"hours"`
	MapURL  string `json:"map_url"`
}

type ContactSection struct {
	Title        string `json:"title"`
	Paragraph    string `json:"paragraph"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	InstagramURL string `json:"instagram_url"`
	FacebookURL  string `json:"facebook_url"`
}

type InstagramSection struct {
	Title    string `json:"title"`
	Username string `json:"username"`
	CTAText  string `json:"cta_text"`
}

type ObservationsSection struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

type AppSettings struct {
	RotationIntervalMillis int `json:"rotation_interval_ms"`
	FadeMillis             int `json:"fade_ms"`
}

func (s AppSettings) RotationInterval() time.Duration {
	return time.Duration(s.RotationIntervalMillis) * time.Millisecond
}

func (s AppSettings) Fade() time.Duration {
	return time.Duration(s.FadeMillis) * time.Millisecond
}

// Schedule holds the opening hours as HH:MM strings.
type Schedule struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}
