package negotiation

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidConfig = errors.New("invalid negotiation config")

type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig.Error(), e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Termination selects what a seller does once it reaches ForcedRound
// without accepting.
type Termination string

const (
	TerminationWalkAway Termination = "walk_away"
	TerminationFloor    Termination = "floor"
)

func ParseTermination(raw string) (Termination, error) {
	switch Termination(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TerminationWalkAway:
		return TerminationWalkAway, nil
	case TerminationFloor:
		return TerminationFloor, nil
	default:
		return "", &ConfigError{Field: "seller_termination", Reason: fmt.Sprintf("unsupported value %q", raw)}
	}
}

type PartyConfig struct {
	Name        string  `json:"name"`
	Personality string  `json:"personality"`
	AnchorPrice float64 `json:"anchor_price"`
}

type SessionConfig struct {
	Product           string      `json:"product"`
	MarketPrice       float64     `json:"market_price"`
	Buyer             PartyConfig `json:"buyer"`
	Seller            PartyConfig `json:"seller"`
	MaxRounds         int         `json:"max_rounds"`
	SellerTermination Termination `json:"seller_termination"`
}

// WithDefaults fills MaxRounds and SellerTermination when left empty.
func (c SessionConfig) WithDefaults() SessionConfig {
	if c.MaxRounds == 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.SellerTermination == "" {
		c.SellerTermination = TerminationWalkAway
	}
	c.Product = strings.TrimSpace(c.Product)
	c.Buyer.Name = strings.TrimSpace(c.Buyer.Name)
	c.Seller.Name = strings.TrimSpace(c.Seller.Name)
	return c
}

func (c SessionConfig) Validate() error {
	if err := requirePositive("market_price", c.MarketPrice); err != nil {
		return err
	}
	if err := requirePositive("buyer.anchor_price", c.Buyer.AnchorPrice); err != nil {
		return err
	}
	if err := requirePositive("seller.anchor_price", c.Seller.AnchorPrice); err != nil {
		return err
	}
	if c.MaxRounds <= 0 {
		return &ConfigError{Field: "max_rounds", Reason: "must be > 0"}
	}
	if _, err := ParseTermination(string(c.SellerTermination)); err != nil {
		return err
	}
	return nil
}

func requirePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ConfigError{Field: field, Reason: "must be a finite number"}
	}
	if v <= 0 {
		return &ConfigError{Field: field, Reason: "must be > 0"}
	}
	return nil
}
