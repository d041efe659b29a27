package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeConfigError
	OutcomeTransportError
	OutcomeStatusError
	OutcomeDecodeError
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:           "none",
	OutcomeSuccess:        "success",
	OutcomeConfigError:    "config_error",
	OutcomeTransportError: "transport_error",
	OutcomeStatusError:    "status_error",
	OutcomeDecodeError:    "decode_error",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) Failed() bool {
	return o != OutcomeNone && o != OutcomeSuccess
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for k, v := range outcomeNames {
		if v == name {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", name)
}

// Classify maps an upload error onto the outcome taxonomy.
func Classify(err error) Outcome {
	var statusErr *StatusError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrBackendUnresolved):
		return OutcomeConfigError
	case errors.As(err, &statusErr):
		return OutcomeStatusError
	case errors.Is(err, ErrDecode):
		return OutcomeDecodeError
	default:
		return OutcomeTransportError
	}
}
