package cards

import "fmt"

// Catalog is the full template set a Supply is built from.
type Catalog struct {
	SmallDeals []Card `json:"small_deals"`
	BigDeals   []Card `json:"big_deals"`
	Expenses   []Card `json:"expenses"`
}

// Validate checks every card in the catalog and that ids are unique.
func (c Catalog) Validate() error {
	seen := make(map[string]bool)
	check := func(want Category, deck []Card) error {
		for _, card := range deck {
			if err := card.Validate(); err != nil {
				return err
			}
			if card.Category != want {
				return fmt.Errorf("%w: card %s in %s deck has category %s", ErrInvalidCard, card.ID, want, card.Category)
			}
			if seen[card.ID] {
				return fmt.Errorf("%w: duplicate card id %s", ErrInvalidCard, card.ID)
			}
			seen[card.ID] = true
		}
		return nil
	}

	if err := check(CategorySmallDeal, c.SmallDeals); err != nil {
		return err
	}
	if err := check(CategoryBigDeal, c.BigDeals); err != nil {
		return err
	}
	if err := check(CategoryExpense, c.Expenses); err != nil {
		return err
	}
	if len(c.Expenses) == 0 {
		return fmt.Errorf("%w: catalog needs at least one expense card", ErrInvalidCard)
	}
	return nil
}

// DefaultCatalog returns the stock deck contents.
func DefaultCatalog() Catalog {
	return Catalog{
		SmallDeals: defaultSmallDeals(),
		BigDeals:   defaultBigDeals(),
		Expenses:   defaultExpenses(),
	}
}

func defaultExpenses() []Card {
	expense := func(id, title, description string, cost int) Card {
		return Card{
			ID:          id,
			Category:    CategoryExpense,
			Title:       title,
			Description: description,
			Mandatory:   true,
			Expense:     &ExpenseTerms{Cost: cost},
		}
	}

	return []Card{
		expense("e1", "New Phone", "Bought latest model", 800),
		expense("e2", "Car Repair", "Engine failure", 1200),
		expense("e3", "Tax Audit", "Pay back taxes", 500),
		expense("e4", "Shopping Spree", "Clothes and shoes", 1000),
		expense("e5", "Family Vacation", "Theme park trip", 2000),
		expense("e6", "Medical Bill", "Unexpected surgery", 1500),
		expense("e7", "House Repairs", "Fixing the roof", 800),
		expense("e8", "New TV", "OLED 4K TV", 2000),
		expense("e9", "Concert Tickets", "VIP seats", 300),
		expense("e10", "Charity Ball", "Donation", 500),
		expense("e11", "Boat Maintenance", "If you own a boat", 1000),
		expense("e12", "New Tires", "For your car", 400),
	}
}

func defaultBigDeals() []Card {
	big := func(id, title, description string, cost, down, cashflow, roi int) Card {
		return Card{
			ID:          id,
			Category:    CategoryBigDeal,
			Title:       title,
			Description: description,
			BigDeal: &BigDealTerms{
				Cost:        cost,
				DownPayment: down,
				Cashflow:    cashflow,
				ROI:         roi,
			},
		}
	}

	return []Card{
		big("bd_1", "4-Plex Apartment", "Steady cashflow machine.", 120000, 12000, 800, 80),
		big("bd_2", "Car Wash", "Automated car wash business.", 150000, 30000, 2500, 100),
		big("bd_3", "8-Unit Building", "Fully occupied. Good management.", 240000, 40000, 1800, 54),
		big("bd_4", "Shopping Mall Share", "Limited partnership in a mall.", 20000, 20000, 1000, 60),
	}
}

type smallDealTemplate struct {
	title       string
	description string
	symbol      string
	cost        int
	cashflow    int
	mandatory   bool
}

func defaultSmallDeals() []Card {
	var deck []Card
	add := func(count int, tpl smallDealTemplate) {
		for i := 0; i < count; i++ {
			deck = append(deck, Card{
				ID:          fmt.Sprintf("sd_%d", len(deck)+1),
				Category:    CategorySmallDeal,
				Title:       tpl.title,
				Description: tpl.description,
				Mandatory:   tpl.mandatory,
				SmallDeal: &SmallDealTerms{
					Cost:     tpl.cost,
					Cashflow: tpl.cashflow,
					Symbol:   tpl.symbol,
				},
			})
		}
	}

	// Stocks
	add(1, smallDealTemplate{title: "Stock Split: Tesla", symbol: "TSLA", cost: 10, description: "Price $10. Trading range $10-$40."})
	add(3, smallDealTemplate{title: "Stock: Tesla", symbol: "TSLA", cost: 20, description: "Price $20. Trading range $10-$40."})
	add(3, smallDealTemplate{title: "Stock: Tesla", symbol: "TSLA", cost: 30, description: "Price $30. Trading range $10-$40."})
	add(1, smallDealTemplate{title: "Stock: Tesla", symbol: "TSLA", cost: 40, description: "Price $40. Trading range $10-$40."})
	add(1, smallDealTemplate{title: "Stock Top: Tesla", symbol: "TSLA", cost: 50, description: "Price $50. Trading range $10-$40."})

	add(1, smallDealTemplate{title: "Stock Split: Microsoft", symbol: "MSFT", cost: 10, description: "Price $10. Range $10-$40."})
	add(3, smallDealTemplate{title: "Stock: Microsoft", symbol: "MSFT", cost: 20, description: "Price $20. Range $10-$40."})
	add(2, smallDealTemplate{title: "Stock: Microsoft", symbol: "MSFT", cost: 30, description: "Price $30. Range $10-$40."})
	add(2, smallDealTemplate{title: "Stock: Microsoft", symbol: "MSFT", cost: 40, description: "Price $40. Range $10-$40."})
	add(1, smallDealTemplate{title: "Stock Top: Microsoft", symbol: "MSFT", cost: 50, description: "Price $50. Range $10-$40."})

	add(2, smallDealTemplate{title: "Stock: Nvidia", symbol: "NVDA", cost: 10, description: "Price $10. Range $10-$40."})
	add(3, smallDealTemplate{title: "Stock: Nvidia", symbol: "NVDA", cost: 20, description: "Price $20. Range $10-$40."})
	add(3, smallDealTemplate{title: "Stock: Nvidia", symbol: "NVDA", cost: 30, description: "Price $30. Range $10-$40."})
	add(2, smallDealTemplate{title: "Stock: Nvidia", symbol: "NVDA", cost: 40, description: "Price $40. Range $10-$40."})

	add(2, smallDealTemplate{title: "Stock: Apple", symbol: "AAPL", cost: 10, description: "Price $10. Range $10-$40."})
	add(5, smallDealTemplate{title: "Stock: Apple", symbol: "AAPL", cost: 20, description: "Price $20. Range $10-$40."})
	add(3, smallDealTemplate{title: "Stock: Apple", symbol: "AAPL", cost: 30, description: "Price $30. Range $10-$40."})
	add(2, smallDealTemplate{title: "Stock: Apple", symbol: "AAPL", cost: 40, description: "Price $40. Range $10-$40."})

	// Crypto
	add(1, smallDealTemplate{title: "Bitcoin Crash", symbol: "BTC", cost: 1000, description: "Price $1,000. Low."})
	add(1, smallDealTemplate{title: "Bitcoin", symbol: "BTC", cost: 5000, description: "Price $5,000."})
	add(1, smallDealTemplate{title: "Bitcoin", symbol: "BTC", cost: 10000, description: "Price $10,000."})
	add(5, smallDealTemplate{title: "Bitcoin Rally", symbol: "BTC", cost: 20000, description: "Price $20,000."})
	add(1, smallDealTemplate{title: "Bitcoin Surge", symbol: "BTC", cost: 50000, description: "Price $50,000."})
	add(1, smallDealTemplate{title: "Bitcoin Moon", symbol: "BTC", cost: 100000, description: "Price $100,000."})

	// Preferred stocks
	add(2, smallDealTemplate{title: "Pref Stock: AT&T", symbol: "T-PREF", cost: 5000, cashflow: 50, description: "Preferred stock. 12% annual yield."})
	add(2, smallDealTemplate{title: "Pref Stock: P&G", symbol: "PG-PREF", cost: 2000, cashflow: 10, description: "Preferred stock. 6% annual yield."})

	// Real estate and small business
	add(5, smallDealTemplate{title: "Commuter Room", cost: 3000, cashflow: 250, description: "Room in the suburbs. ROI 100%."})
	add(2, smallDealTemplate{title: "Manicure Studio", cost: 4900, cashflow: 200, description: "One-seat manicure studio."})
	add(2, smallDealTemplate{title: "Coffee Shop", cost: 4900, cashflow: 100, description: "Neighbourhood coffee shop."})
	add(2, smallDealTemplate{title: "Auto Repair Partner", cost: 4500, cashflow: 350, description: "Partnership in an auto repair shop."})
	add(2, smallDealTemplate{title: "Raw Land", cost: 5000, description: "20 hectares of land. No cashflow."})
	add(1, smallDealTemplate{title: "Drone for Filming", cost: 3000, cashflow: 50, description: "Drone rented out for video shoots."})
	add(5, smallDealTemplate{title: "Studio Flip", cost: 5000, cashflow: 50, description: "Studio apartment flip."})

	// Mandatory donations and damages
	add(1, smallDealTemplate{title: "Loan to Friend", cost: 5000, mandatory: true, description: "A friend asks for a loan. Risky."})
	add(1, smallDealTemplate{title: "Cat Shelter", cost: 5000, mandatory: true, description: "Donation to a cat shelter."})
	add(1, smallDealTemplate{title: "Help Homeless", cost: 5000, mandatory: true, description: "Feed the homeless."})
	add(2, smallDealTemplate{title: "Roof Leak", cost: 5000, mandatory: true, description: "The roof is leaking. Pay $5,000."})
	add(3, smallDealTemplate{title: "Sewer Break", cost: 2000, mandatory: true, description: "Sewer line break. Pay $2,000."})

	return deck
}
