package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

const currentVersion = 2

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

type state struct {
	Items map[string]Line `json:"items"`
	Order []string        `json:"order"`
}

// legacyState is the first persisted shape: a list of whole products with quantities.
type legacyState struct {
	Items []struct {
		Product struct {
			ID     string            `json:"id"`
			Name   string            `json:"name"`
			Price  decimal.Decimal   `json:"price"`
			Images models.StringList `json:"images"`
		} `json:"product"`
		Quantity int `json:"quantity"`
	} `json:"items"`
}

func encode(s state) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: currentVersion, State: raw})
}

// decode reads any known version and returns the current shape. Lines with a
// quantity below 1 or without an id are dropped.
func decode(data []byte) (state, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return state{}, fmt.Errorf("decode cart envelope: %w", err)
	}

	switch {
	case env.Version > currentVersion:
		return state{}, fmt.Errorf("unsupported cart version %d", env.Version)
	case env.Version < currentVersion:
		return migrateLegacy(env.State)
	}

	var s state
	if len(env.State) > 0 {
		if err := json.Unmarshal(env.State, &s); err != nil {
			return state{}, fmt.Errorf("decode cart state: %w", err)
		}
	}

	out := state{Items: map[string]Line{}}
	for _, id := range s.Order {
		line, ok := s.Items[id]
		if !ok || line.Quantity < 1 || id == "" {
			continue
		}
		if _, dup := out.Items[id]; dup {
			continue
		}
		line.ProductID = id
		out.Items[id] = line
		out.Order = append(out.Order, id)
	}
	return out, nil
}

func migrateLegacy(raw json.RawMessage) (state, error) {
	out := state{Items: map[string]Line{}}
	if len(raw) == 0 {
		return out, nil
	}

	var legacy legacyState
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return state{}, fmt.Errorf("decode legacy cart: %w", err)
	}

	for _, item := range legacy.Items {
		id := item.Product.ID
		if id == "" || item.Quantity < 1 {
			continue
		}
		if line, ok := out.Items[id]; ok {
			line.Quantity += item.Quantity
			out.Items[id] = line
			continue
		}
		image := ""
		if len(item.Product.Images) > 0 {
			image = item.Product.Images[0]
		}
		out.Items[id] = Line{
			ProductID: id,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Image:     image,
			Quantity:  item.Quantity,
		}
		out.Order = append(out.Order, id)
	}
	return out, nil
}
