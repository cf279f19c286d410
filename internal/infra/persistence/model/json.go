package model

import (
	"database/sql/driver"
	"encoding/json"

	"puffsocial/internal/domain/entity"

	"github.com/pkg/errors"
)

// HeatProfilesJSON stores a device's keyed heat profiles in a jsonb column.
type HeatProfilesJSON map[string]entity.HeatProfile

// Value implements driver.Valuer.
func (p HeatProfilesJSON) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}

	data, err := json.Marshal(p)

	return data, errors.WithStack(err)
}

// Scan implements sql.Scanner.
func (p *HeatProfilesJSON) Scan(src any) error {
	if src == nil {
		*p = nil

		return nil
	}

	data, ok := src.([]byte)
	if !ok {
		if s, isString := src.(string); isString {
			data = []byte(s)
		} else {
			return errors.Errorf("unsupported jsonb source type %T", src)
		}
	}

	return errors.WithStack(json.Unmarshal(data, p))
}

// BLEServicesJSON stores a diagnostics report's BLE service list in a jsonb column.
type BLEServicesJSON []entity.BLEService

// Value implements driver.Valuer.
func (s BLEServicesJSON) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}

	data, err := json.Marshal(s)

	return data, errors.WithStack(err)
}

// Scan implements sql.Scanner.
func (s *BLEServicesJSON) Scan(src any) error {
	if src == nil {
		*s = nil

		return nil
	}

	data, ok := src.([]byte)
	if !ok {
		if str, isString := src.(string); isString {
			data = []byte(str)
		} else {
			return errors.Errorf("unsupported jsonb source type %T", src)
		}
	}

	return errors.WithStack(json.Unmarshal(data, s))
}
