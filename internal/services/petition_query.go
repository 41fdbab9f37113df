package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petitionsite/internal/models"
	"petitionsite/internal/utils"

	"gorm.io/gorm"
)

type SortBy string

const (
	SortAlphabeticalAsc  SortBy = "ALPHABETICAL_ASC"
	SortAlphabeticalDesc SortBy = "ALPHABETICAL_DESC"
	SortCostAsc          SortBy = "COST_ASC"
	SortCostDesc         SortBy = "COST_DESC"
	SortCreatedAsc       SortBy = "CREATED_ASC"
	SortCreatedDesc      SortBy = "CREATED_DESC"
)

var sortOrders = map[SortBy]string{
	SortAlphabeticalAsc:  "petition.title ASC",
	SortAlphabeticalDesc: "petition.title DESC",
	SortCostAsc:          "tc.min_cost ASC",
	SortCostDesc:         "tc.min_cost DESC",
	SortCreatedAsc:       "petition.creation_date ASC",
	SortCreatedDesc:      "petition.creation_date DESC",
}

// ParseSortBy accepts the empty string as CREATED_ASC; any other unknown
// value is rejected.
func ParseSortBy(s string) (SortBy, error) {
	if s == "" {
		return SortCreatedAsc, nil
	}
	sb := SortBy(s)
	if _, ok := sortOrders[sb]; !ok {
		return "", ErrInvalidSortBy
	}
	return sb, nil
}

// SearchParams holds the optional petition filters. Nil means "not given".
type SearchParams struct {
	CategoryIDs    []uint
	OwnerID        *uint
	SupporterID    *uint
	Q              *string
	SupportingCost *int
	SortBy         string
	StartIndex     *int
	Count          *int
}

type PetitionSummary struct {
	PetitionID         uint      `json:"petitionId"`
	Title              string    `json:"title"`
	CategoryID         uint      `json:"categoryId"`
	OwnerID            uint      `json:"ownerId"`
	OwnerFirstName     string    `json:"ownerFirstName"`
	OwnerLastName      string    `json:"ownerLastName"`
	CreationDate       time.Time `json:"creationDate"`
	NumberOfSupporters int64     `json:"numberOfSupporters"`
	SupportingCost     int       `json:"supportingCost"`
}

type SearchResult struct {
	Petitions []PetitionSummary `json:"petitions"`
	Count     int64             `json:"count"`
}

type SupportTierView struct {
	SupportTierID uint   `json:"supportTierId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Cost          int    `json:"cost"`
}

type PetitionDetail struct {
	PetitionSummary
	Description     string            `json:"description"`
	DescriptionHTML string            `json:"descriptionHtml"`
	MoneyRaised     int64             `json:"moneyRaised"`
	SupportTiers    []SupportTierView `json:"supportTiers"`
}

// predicate is one parameterized WHERE fragment. Values only ever travel in
// args.
type predicate struct {
	clause string
	args   []interface{}
}

// filterSet AND-composes independent predicates.
type filterSet struct {
	predicates []predicate
}

func (f *filterSet) and(clause string, args ...interface{}) {
	f.predicates = append(f.predicates, predicate{clause: clause, args: args})
}

func (f *filterSet) apply(q *gorm.DB) *gorm.DB {
	for _, p := range f.predicates {
		q = q.Where(p.clause, p.args...)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func buildFilters(p SearchParams) (*filterSet, error) {
	f := &filterSet{}
	if len(p.CategoryIDs) > 0 {
		f.and("petition.category_id IN ?", p.CategoryIDs)
	}
	if p.OwnerID != nil {
		f.and("petition.owner_id = ?", *p.OwnerID)
	}
	if p.SupporterID != nil {
		f.and("EXISTS (SELECT 1 FROM supporter s WHERE s.petition_id = petition.id AND s.user_id = ?)", *p.SupporterID)
	}
	if p.Q != nil {
		if *p.Q == "" {
			return nil, ErrEmptySearchTerm
		}
		// Both sides are folded by the store so they agree on every character.
		pattern := "%" + likeEscaper.Replace(*p.Q) + "%"
		f.and(`(LOWER(petition.title) LIKE LOWER(?) ESCAPE '\' OR LOWER(petition.description) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern)
	}
	// Acts on the grouped tier-cost column, never on raw tier rows.
	if p.SupportingCost != nil {
		f.and("tc.min_cost <= ?", *p.SupportingCost)
	}
	return f, nil
}

const (
	supporterCountsJoin = "LEFT JOIN (SELECT petition_id, COUNT(*) AS supporter_count FROM supporter GROUP BY petition_id) AS sc ON sc.petition_id = petition.id"
	tierCostsJoin       = "LEFT JOIN (SELECT petition_id, MIN(cost) AS min_cost FROM support_tier GROUP BY petition_id) AS tc ON tc.petition_id = petition.id"
	ownerJoin           = "LEFT JOIN users AS u ON u.id = petition.owner_id"
	summaryColumns      = "petition.id AS petition_id, petition.title, petition.category_id, petition.owner_id, " +
		"u.first_name AS owner_first_name, u.last_name AS owner_last_name, petition.creation_date, " +
		"COALESCE(sc.supporter_count, 0) AS number_of_supporters, COALESCE(tc.min_cost, 0) AS supporting_cost"
)

// summaryQuery joins petition to its per-petition aggregates. Grouping happens
// inside the derived tables, so any filter on sc/tc sees grouped values.
func summaryQuery(tx *gorm.DB) *gorm.DB {
	return tx.Table("petition").
		Joins(supporterCountsJoin).
		Joins(tierCostsJoin).
		Joins(ownerJoin)
}

// Search runs the filter / aggregate / sort / paginate pipeline.
func (s *PetitionService) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	sortBy, err := ParseSortBy(p.SortBy)
	if err != nil {
		return nil, err
	}
	if (p.StartIndex != nil && *p.StartIndex < 0) || (p.Count != nil && *p.Count < 0) {
		return nil, ErrInvalidPage
	}
	filters, err := buildFilters(p)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx)

	var total int64
	if err := filters.apply(summaryQuery(tx)).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count petitions: %w", err)
	}

	startIndex := 0
	if p.StartIndex != nil {
		startIndex = *p.StartIndex
	}
	if int64(startIndex) > total {
		return nil, ErrPageOutOfRange
	}
	count := int(total)
	if p.Count != nil {
		count = *p.Count
	}

	result := &SearchResult{Petitions: []PetitionSummary{}, Count: total}
	if count == 0 || int64(startIndex) == total {
		return result, nil
	}

	err = filters.apply(summaryQuery(tx)).
		Select(summaryColumns).
		Order(sortOrders[sortBy]).
		Order("petition.id ASC").
		Offset(startIndex).
		Limit(count).
		Scan(&result.Petitions).Error
	if err != nil {
		return nil, fmt.Errorf("search petitions: %w", err)
	}
	return result, nil
}

// Get returns a petition with its tiers in creation order and the total
// raised by its pledges.
func (s *PetitionService) Get(ctx context.Context, id uint) (*PetitionDetail, error) {
	tx := s.db.WithContext(ctx)

	var petition models.Petition
	if err := tx.First(&petition, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetitionNotFound
		}
		return nil, fmt.Errorf("get petition %d: %w", id, err)
	}

	var summary PetitionSummary
	err := summaryQuery(tx).
		Select(summaryColumns).
		Where("petition.id = ?", id).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("summarise petition %d: %w", id, err)
	}

	var moneyRaised int64
	err = tx.Table("supporter").
		Joins("JOIN support_tier ON support_tier.id = supporter.support_tier_id").
		Where("supporter.petition_id = ?", id).
		Select("COALESCE(SUM(support_tier.cost), 0)").
		Scan(&moneyRaised).Error
	if err != nil {
		return nil, fmt.Errorf("sum pledges for petition %d: %w", id, err)
	}

	tiers, err := tiersOf(tx, id)
	if err != nil {
		return nil, err
	}
	views := make([]SupportTierView, len(tiers))
	for i, t := range tiers {
		views[i] = SupportTierView{
			SupportTierID: t.ID,
			Title:         t.Title,
			Description:   t.Description,
			Cost:          t.Cost,
		}
	}

	return &PetitionDetail{
		PetitionSummary: summary,
		Description:     petition.Description,
		DescriptionHTML: utils.RenderMarkdown(petition.Description),
		MoneyRaised:     moneyRaised,
		SupportTiers:    views,
	}, nil
}

func tiersOf(tx *gorm.DB, petitionID uint) ([]models.SupportTier, error) {
	var tiers []models.SupportTier
	if err := tx.Where("petition_id = ?", petitionID).Order("id ASC").Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("load tiers of petition %d: %w", petitionID, err)
	}
	return tiers, nil
}
