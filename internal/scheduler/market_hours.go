package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// TradingWindow represents a single trading period within a day
type TradingWindow struct {
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
}

// ExchangeCalendar defines trading hours and holidays for an exchange
type ExchangeCalendar struct {
	Code           string
	Name           string
	TimezoneStr    string
	Timezone       *time.Location
	TradingWindows []TradingWindow
	Holidays       []time.Time
}

// MarketHoursService provides market status information
type MarketHoursService struct {
	calendars map[string]*ExchangeCalendar
	log       zerolog.Logger
}

// NewMarketHoursService creates a new market hours service
func NewMarketHoursService(log zerolog.Logger) *MarketHoursService {
	service := &MarketHoursService{
		calendars: make(map[string]*ExchangeCalendar),
		log:       log.With().Str("component", "market_hours").Logger(),
	}

	service.initializeCalendars()
	return service
}

// initializeCalendars sets up trading hours and holidays for the Indian
// exchanges. Windows are conservative core hours, trimmed at open and
// close so a refresh never races the auction sessions.
func (s *MarketHoursService) initializeCalendars() {
	mumbaiLoc, _ := time.LoadLocation("Asia/Kolkata")

	indiaHolidays := []time.Time{
		time.Date(2026, 1, 26, 0, 0, 0, 0, mumbaiLoc),  // Republic Day
		time.Date(2026, 3, 14, 0, 0, 0, 0, mumbaiLoc),  // Holi
		time.Date(2026, 3, 30, 0, 0, 0, 0, mumbaiLoc),  // Ram Navami
		time.Date(2026, 4, 2, 0, 0, 0, 0, mumbaiLoc),   // Mahavir Jayanti
		time.Date(2026, 4, 10, 0, 0, 0, 0, mumbaiLoc),  // Good Friday
		time.Date(2026, 4, 14, 0, 0, 0, 0, mumbaiLoc),  // Ambedkar Jayanti
		time.Date(2026, 5, 1, 0, 0, 0, 0, mumbaiLoc),   // Maharashtra Day
		time.Date(2026, 7, 7, 0, 0, 0, 0, mumbaiLoc),   // Bakri Id
		time.Date(2026, 8, 15, 0, 0, 0, 0, mumbaiLoc),  // Independence Day
		time.Date(2026, 10, 2, 0, 0, 0, 0, mumbaiLoc),  // Gandhi Jayanti
		time.Date(2026, 10, 23, 0, 0, 0, 0, mumbaiLoc), // Dussehra
		time.Date(2026, 11, 11, 0, 0, 0, 0, mumbaiLoc), // Diwali
		time.Date(2026, 11, 12, 0, 0, 0, 0, mumbaiLoc), // Diwali (Balipratipada)
		time.Date(2026, 11, 25, 0, 0, 0, 0, mumbaiLoc), // Gurunanak Jayanti
		time.Date(2026, 12, 25, 0, 0, 0, 0, mumbaiLoc), // Christmas
	}

	// NSE regular session is 09:15-15:30 IST; core window avoids the
	// opening and closing auctions
	s.calendars["NSE"] = &ExchangeCalendar{
		Code:        "XNSE",
		Name:        "NSE",
		TimezoneStr: "Asia/Kolkata",
		Timezone:    mumbaiLoc,
		TradingWindows: []TradingWindow{
			{OpenHour: 9, OpenMinute: 30, CloseHour: 15, CloseMinute: 15},
		},
		Holidays: indiaHolidays,
	}

	// BSE trades the same session and holiday calendar
	s.calendars["BSE"] = &ExchangeCalendar{
		Code:        "XBOM",
		Name:        "BSE",
		TimezoneStr: "Asia/Kolkata",
		Timezone:    mumbaiLoc,
		TradingWindows: []TradingWindow{
			{OpenHour: 9, OpenMinute: 30, CloseHour: 15, CloseMinute: 15},
		},
		Holidays: indiaHolidays,
	}

	s.log.Info().Int("calendars", len(s.calendars)).Msg("Market hours calendars initialized")
}

// GetCalendar returns the calendar for an exchange name
func (s *MarketHoursService) GetCalendar(exchangeName string) *ExchangeCalendar {
	if cal, ok := s.calendars[exchangeName]; ok {
		return cal
	}

	// Default to NSE if not found
	s.log.Warn().Str("exchange", exchangeName).Msg("Unknown exchange, defaulting to NSE")
	return s.calendars["NSE"]
}

// IsMarketOpen checks if a market is currently open for trading
func (s *MarketHoursService) IsMarketOpen(exchangeName string) bool {
	return s.isMarketOpenAt(exchangeName, time.Now())
}

func (s *MarketHoursService) isMarketOpenAt(exchangeName string, t time.Time) bool {
	cal := s.GetCalendar(exchangeName)
	now := t.In(cal.Timezone)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, cal.Timezone)
	for _, holiday := range cal.Holidays {
		if holiday.Equal(today) {
			return false
		}
	}

	currentMinutes := now.Hour()*60 + now.Minute()
	for _, window := range cal.TradingWindows {
		openMinutes := window.OpenHour*60 + window.OpenMinute
		closeMinutes := window.CloseHour*60 + window.CloseMinute

		if currentMinutes >= openMinutes && currentMinutes < closeMinutes {
			return true
		}
	}

	return false
}

// MarketStatus represents the status of a market
type MarketStatus struct {
	Exchange string `json:"exchange"`
	IsOpen   bool   `json:"is_open"`
	Timezone string `json:"timezone"`
}

// GetAllMarketStatuses returns status for all configured markets
func (s *MarketHoursService) GetAllMarketStatuses() []MarketStatus {
	statuses := make([]MarketStatus, 0, len(s.calendars))
	seen := make(map[string]bool)

	for name, cal := range s.calendars {
		if seen[cal.Code] {
			continue
		}
		seen[cal.Code] = true

		statuses = append(statuses, MarketStatus{
			Exchange: name,
			IsOpen:   s.IsMarketOpen(name),
			Timezone: cal.TimezoneStr,
		})
	}

	return statuses
}
