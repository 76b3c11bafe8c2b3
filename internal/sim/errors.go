package sim

import (
	"fmt"

	"github.com/efreitasn/microhedger/internal/domain"
)

func errUnsupportedParameter(param domain.Parameter) error {
	return fmt.Errorf("parameter %v is reserved but unimplemented: %w", param, domain.ErrInvalidArgument)
}
