package backtest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/crossover/internal/core"
)

// TradeMode selects which transitions the state machine may take.
type TradeMode string

const (
	LongOnly  TradeMode = "long_only"
	ShortOnly TradeMode = "short_only"
	Both      TradeMode = "both"
	HoldToEnd TradeMode = "hold_to_end"
)

// LotMode selects how position size is chosen on entry.
type LotMode string

const (
	LotFixed   LotMode = "fixed"
	LotDynamic LotMode = "dynamic"
)

// Parameters configure a single run. Treat it as a value: it is copied into
// the run and never mutated there.
type Parameters struct {
	IndicatorWindow            int       `mapstructure:"indicator_window" json:"indicatorWindow" validate:"gte=2"`
	TradeMode                  TradeMode `mapstructure:"trade_mode" json:"tradeMode" validate:"oneof=long_only short_only both hold_to_end"`
	InitialCapital             float64   `mapstructure:"initial_capital" json:"initialCapital" validate:"gt=0"`
	MonthlyContribution        float64   `mapstructure:"monthly_contribution" json:"monthlyContribution" validate:"gte=0"`
	Leverage                   float64   `mapstructure:"leverage" json:"leverage" validate:"gt=0"`
	LotMode                    LotMode   `mapstructure:"lot_mode" json:"lotMode" validate:"oneof=fixed dynamic"`
	FixedLots                  int       `mapstructure:"fixed_lots" json:"fixedLots" validate:"gte=0"`
	PointValue                 float64   `mapstructure:"point_value" json:"pointValue" validate:"gt=0"`
	UseFee                     bool      `mapstructure:"use_fee" json:"useFee"`
	BuyFee                     float64   `mapstructure:"buy_fee" json:"buyFee" validate:"gte=0"`
	SellFee                    float64   `mapstructure:"sell_fee" json:"sellFee" validate:"gte=0"`
	EnableRebalance            bool      `mapstructure:"enable_rebalance" json:"enableRebalance"`
	RebalancePeriodMonths      int       `mapstructure:"rebalance_period_months" json:"rebalancePeriodMonths" validate:"gte=1"`
	EnableBackwardationCarry   bool      `mapstructure:"enable_backwardation_carry" json:"enableBackwardationCarry"`
	BackwardationAnnualRatePct float64   `mapstructure:"backwardation_annual_rate_pct" json:"backwardationAnnualRatePct" validate:"gte=0"`
}

// DefaultParameters mirrors a mini index future: 50 per point, 35 per side.
func DefaultParameters() Parameters {
	return Parameters{
		IndicatorWindow:            13,
		TradeMode:                  LongOnly,
		InitialCapital:             1_000_000,
		Leverage:                   1,
		LotMode:                    LotDynamic,
		FixedLots:                  1,
		PointValue:                 50,
		UseFee:                     true,
		BuyFee:                     35,
		SellFee:                    35,
		EnableRebalance:            true,
		RebalancePeriodMonths:      1,
		BackwardationAnnualRatePct: 4,
	}
}

// WithWindow returns a copy of p using the given indicator window.
func (p Parameters) WithWindow(window int) Parameters {
	p.IndicatorWindow = window
	return p
}

var paramsValidate = validator.New()

// Validate checks every field bound. Failures are INVALID_PARAMETERS.
func (p Parameters) Validate() error {
	if err := paramsValidate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s must satisfy %s (got %v)", fe.Field(), rule(fe), fe.Value()))
			}
			return core.WrapError(core.ErrInvalidParameters, errors.New(strings.Join(msgs, "; ")))
		}
		return core.WrapError(core.ErrInvalidParameters, err)
	}
	if p.LotMode == LotFixed && p.FixedLots < 1 {
		return core.Errorf(core.ErrInvalidParameters, "FixedLots must be at least 1 in fixed lot mode, got %d", p.FixedLots)
	}
	return nil
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
