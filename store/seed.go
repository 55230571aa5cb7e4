package store

import (
	"fmt"
	"log/slog"
)

func DefaultSiteContent() *SiteContent {
	return &SiteContent{
		Hero: HeroSection{
			Title:    "Bem-vindo ao Flora Café",
			Subtitle: "Um oásis de sabores e tranquilidade no coração de Eusébio.",
			ImageURL: "/static/images/hero.svg",
		},
		About: AboutSection{
			Title:     "Um Café Nascido da Paixão",
			Paragraph: "O Flora Café Eusébio nasceu do sonho de criar um refúgio acolhedor, onde o aroma do café fresco se mistura com a beleza da natureza. Utilizamos ingredientes locais e de alta qualidade para criar pratos e bebidas que encantam o paladar.",
		},
		Gallery: GallerySection{
			Title: "Nossos Momentos",
		},
		Reservations: ReservationsSection{
			Title:     "Faça sua Reserva",
			Paragraph: "Garanta seu lugar em nosso café. Preencha o formulário abaixo e nossa equipe entrará em contato para confirmar sua reserva.",
		},
		Location: LocationSection{
			Title:   "Nossa Localização",
			Address: "Rua Fictícia, 123 - Centro, Eusébio - CE",
			Hours:   "Seg - Sáb: 8:00 - 20:00 | Dom: 9:00 - 18:00",
			MapURL:  "https://www.google.com/maps/embed?pb=!1m18!1m12!1m3!1d15926.417031154388!2d-38.46011382509156!3d-3.868770742512613",
		},
		Contact: ContactSection{
			Title:        "Fale Conosco",
			Paragraph:    "Tem alguma dúvida ou sugestão? Nos envie uma mensagem.",
			Phone:        "(85) 91234-5678",
			Email:        "contato@floracafeeusebio.com",
			InstagramURL: "https://instagram.com",
			FacebookURL:  "https://facebook.com",
		},
		Instagram: InstagramSection{
			Title:    "Siga-nos no Instagram",
			Username: "@floracafeeusebio",
			CTAText:  "Acompanhe as novidades do nosso cardápio e os momentos do nosso café.",
		},
		Observations: ObservationsSection{
			Title: "Observações",
		},
	}
}

func defaultMenu() []MenuItem {
	return []MenuItem{
		{Name: "Espresso", Description: "Café forte e encorpado.", Price: 5.00, Category: CategoryCoffee, ImageURL: "/static/images/menu-placeholder.svg"},
		{Name: "Cappuccino", Description: "Espresso, leite vaporizado e espuma de leite.", Price: 8.00, Category: CategoryCoffee, ImageURL: "/static/images/menu-placeholder.svg"},
		{Name: "Pão de Queijo", Description: "Tradicional pão de queijo mineiro.", Price: 4.00, Category: CategorySavory, ImageURL: "/static/images/menu-placeholder.svg"},
	}
}

// Seed writes the default site content and menu when they are missing.
func (d *Database) Seed() error {
	if _, err := d.GetSiteContent(); err != nil {
		return fmt.Errorf("seed site content: %w", err)
	}

	count, err := d.GetMenuItemCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	slog.Info("menu is empty, adding default items")
	for _, item := range defaultMenu() {
		if err := d.InsertMenuItem(&item); err != nil {
			return fmt.Errorf("seed menu: %w", err)
		}
	}
	return nil
}
