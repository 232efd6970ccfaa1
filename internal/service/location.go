package service

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
)

//go:embed data/vn_locations.json
var vnLocationsJSON []byte

// Province: провинция с районами
type Province struct {
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

// LocationService отдает справочник провинций и районов
type LocationService struct {
	provinces []Province
	byKey     map[string]*Province
}

// NewLocationService загружает встроенный справочник
func NewLocationService() (*LocationService, error) {
	return newLocationService(vnLocationsJSON)
}

func newLocationService(raw []byte) (*LocationService, error) {
	var provinces []Province
	if err := json.Unmarshal(raw, &provinces); err != nil {
		return nil, fmt.Errorf("decode location dataset: %w", err)
	}
	sort.SliceStable(provinces, func(i, j int) bool {
		return Slugify(provinces[i].Name) < Slugify(provinces[j].Name)
	})

	s := &LocationService{provinces: provinces, byKey: make(map[string]*Province, len(provinces))}
	for i := range s.provinces {
		s.byKey[locationKey(s.provinces[i].Name)] = &s.provinces[i]
	}
	return s, nil
}

// locationKey сравнивает названия без учета регистра и диакритики
func locationKey(name string) string {
	return Slugify(strings.TrimSpace(name))
}

// Provinces возвращает названия провинций
func (s *LocationService) Provinces() []string {
	out := make([]string, len(s.provinces))
	for i, p := range s.provinces {
		out[i] = p.Name
	}
	return out
}

// Districts возвращает районы провинции
func (s *LocationService) Districts(province string) ([]string, error) {
	p, ok := s.byKey[locationKey(province)]
	if !ok {
		return nil, fmt.Errorf("%w: province %q", apperrors.ErrNotFound, province)
	}
	out := make([]string, len(p.Districts))
	copy(out, p.Districts)
	return out, nil
}

// IsKnownProvince проверяет название провинции
func (s *LocationService) IsKnownProvince(province string) bool {
	_, ok := s.byKey[locationKey(province)]
	return ok
}
