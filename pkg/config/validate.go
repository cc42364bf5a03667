package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/solarclear/pkg/solar"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and cross-field rules. Every failure wraps
// solar.ErrInvalidInput.
func Validate(cfg *ConfigData) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", solar.ErrInvalidInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", solar.ErrInvalidInput, err)
	}

	from, to, err := cfg.Run.Period(time.UTC)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("%w: run end_date %s before start_date %s", solar.ErrInvalidInput, cfg.Run.EndDate, cfg.Run.StartDate)
	}

	src := cfg.Sources
	if src.WeatherCSV == "" && src.OpenMeteo == nil {
		return fmt.Errorf("%w: no weather source configured", solar.ErrInvalidInput)
	}
	if src.MeasurementsCSV == "" && src.OpenAQ == nil {
		return fmt.Errorf("%w: no pollution source configured", solar.ErrInvalidInput)
	}

	return nil
}
