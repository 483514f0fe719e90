package dialog

import (
	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
)

// BuildGraph assembles the incident report step graph from configuration.
func BuildGraph(cfg *config.Config) (*Graph, error) {
	return NewGraph(StepStart, Steps(cfg))
}

// Steps returns the step definitions for cfg. Branch functions route on the
// fire keyword and on the configured problem area routes.
func Steps(cfg *config.Config) []*StepDefinition {
	isFire := func(a domain.Answers) bool {
		return cfg.IsFireCategory(a.Text(domain.FieldCategory))
	}
	route := func(a domain.Answers) string {
		r, _ := cfg.RouteFor(a.Text(domain.FieldArea))
		return r
	}
	to := func(id domain.StepID) func(domain.Answers) domain.StepID {
		return func(domain.Answers) domain.StepID { return id }
	}
	number := func(id domain.StepID, field domain.FieldKey, prompt string, r config.Range, next ...domain.StepID) *StepDefinition {
		return &StepDefinition{ID: id, Kind: InputNumber, Field: field, Prompt: prompt, Range: r, Next: next}
	}

	confirm := cfg.Keyphrases.Confirmation

	steps := []*StepDefinition{
		{
			ID:      StepStart,
			Kind:    InputChoice,
			Field:   domain.FieldCategory,
			Prompt:  config.TemplateStart,
			Options: cfg.Keyphrases.IssuesCategories,
			Next:    []domain.StepID{StepSelectStreet},
			Branch:  to(StepSelectStreet),
		},
		{
			ID:      StepSelectStreet,
			Kind:    InputChoice,
			Field:   domain.FieldStreet,
			Prompt:  config.TemplateSelectStreet,
			Options: cfg.Keyphrases.SupportedStreets,
			Next:    []domain.StepID{StepSelectHouse},
			Branch:  to(StepSelectHouse),
		},
		{
			ID:     StepSelectHouse,
			Kind:   InputNumber,
			Field:  domain.FieldHouse,
			Prompt: config.TemplateSelectHouseNumber,
			Range:  cfg.Ranges.House,
			Next:   []domain.StepID{StepSelectArea, StepSelectSection},
			Branch: func(a domain.Answers) domain.StepID {
				if isFire(a) {
					return StepSelectSection
				}
				return StepSelectArea
			},
		},
		{
			ID:      StepSelectArea,
			Kind:    InputChoice,
			Field:   domain.FieldArea,
			Prompt:  config.TemplateSelectProblemArea,
			Options: cfg.Keyphrases.ProblemAreas,
			Next:    []domain.StepID{StepSelectSection, StepSelectParking, StepSpecifyDescription},
			Branch: func(a domain.Answers) domain.StepID {
				switch route(a) {
				case config.RouteFloor, config.RouteFlat, config.RouteStoreroom:
					return StepSelectSection
				case config.RouteParking:
					return StepSelectParking
				case config.RouteDescription:
					return StepSpecifyDescription
				}
				return ""
			},
		},
		{
			ID:     StepSelectSection,
			Kind:   InputNumber,
			Field:  domain.FieldSection,
			Prompt: config.TemplateSelectSectionNumber,
			Range:  cfg.Ranges.Section,
			Next:   []domain.StepID{StepConfirm, StepSelectFloor, StepSelectStoreroom},
			Branch: func(a domain.Answers) domain.StepID {
				if isFire(a) {
					return StepConfirm
				}
				switch route(a) {
				case config.RouteFloor, config.RouteFlat:
					return StepSelectFloor
				case config.RouteStoreroom:
					return StepSelectStoreroom
				}
				return ""
			},
		},
		{
			ID:     StepSelectFloor,
			Kind:   InputNumber,
			Field:  domain.FieldFloor,
			Prompt: config.TemplateSelectFloorNumber,
			Range:  cfg.Ranges.Floor,
			Next:   []domain.StepID{StepSelectFlat, StepConfirm},
			Branch: func(a domain.Answers) domain.StepID {
				if route(a) == config.RouteFlat {
					return StepSelectFlat
				}
				return StepConfirm
			},
		},
		withBranch(number(StepSelectFlat, domain.FieldFlat, config.TemplateSelectFlatNumber, cfg.Ranges.Flat, StepConfirm), to(StepConfirm)),
		withBranch(number(StepSelectStoreroom, domain.FieldStoreroom, config.TemplateSelectStoreroomNumber, cfg.Ranges.Storeroom, StepConfirm), to(StepConfirm)),
		withBranch(number(StepSelectParking, domain.FieldParking, config.TemplateSelectParkingNumber, cfg.Ranges.Parking, StepConfirm), to(StepConfirm)),
		{
			ID:     StepSpecifyDescription,
			Kind:   InputText,
			Field:  domain.FieldDescription,
			Prompt: config.TemplateSpecifyDescription,
			Next:   []domain.StepID{StepConfirm},
			Branch: to(StepConfirm),
		},
		{
			ID:     StepConfirm,
			Kind:   InputConfirm,
			Prompt: config.TemplateConfirmRequest,
			// Matched in this order, so "send" phrases never shadow the
			// more specific actions.
			Actions: []Action{
				{Label: confirm.AddPhoto.Label, Match: confirm.AddPhoto.Match, Target: StepUploadPhoto},
				{Label: confirm.AddDescription.Label, Match: confirm.AddDescription.Match, Target: StepAddDescription},
				{Label: confirm.AddLocation.Label, Match: confirm.AddLocation.Match, Target: StepShareLocation},
				{Label: confirm.Send.Label, Match: confirm.Send.Match, Target: StepSubmit},
			},
			Next: []domain.StepID{StepUploadPhoto, StepAddDescription, StepShareLocation, StepSubmit},
		},
		{
			ID:     StepUploadPhoto,
			Kind:   InputMedia,
			Field:  domain.FieldMedia,
			Prompt: config.TemplateUploadPhoto,
			Detour: true,
		},
		{
			ID:     StepAddDescription,
			Kind:   InputText,
			Field:  domain.FieldDescription,
			Prompt: config.TemplateAddDescription,
			Detour: true,
		},
		{
			ID:     StepShareLocation,
			Kind:   InputLocation,
			Field:  domain.FieldLocation,
			Prompt: config.TemplateShareLocation,
			Detour: true,
		},
	}

	return steps
}

func withBranch(def *StepDefinition, branch func(domain.Answers) domain.StepID) *StepDefinition {
	def.Branch = branch
	return def
}
