package funnel

import "QuizFunnel/internal/model"

// DefaultSteps 太阳能补贴资格问卷的 8 个固定步骤
func DefaultSteps() []model.StepDefinition {
	return []model.StepDefinition{
		{
			Question: "Do you own your home?",
			Subtext:  "To qualify for solar rebates, you need to be the property owner",
			Field:    model.FieldHomeOwnership,
			Kind:     model.InputSelect,
			Options: []model.Choice{
				{Value: model.HomeOwnershipOwn, Label: "Yes, I own my home"},
				{Value: model.HomeOwnershipRent, Label: "No, I rent my home"},
				{Value: model.HomeOwnershipOther, Label: "Other"},
			},
		},
		{
			Question: "What's your average monthly electricity bill?",
			Subtext:  "This helps us calculate your potential savings",
			Field:    model.FieldElectricityBill,
			Kind:     model.InputRange,
			Range:    &model.RangeSpec{Min: 0, Max: 800, Step: 50},
		},
		{
			Question: "What's your address?",
			Subtext:  "We'll check solar panel compatibility for your roof",
			Field:    model.FieldAddress,
			Kind:     model.InputAddress,
		},
		{
			Question:    "What's your first name?",
			Field:       model.FieldFirstName,
			Kind:        model.InputText,
			Placeholder: "John",
		},
		{
			Question:    "What's your last name?",
			Field:       model.FieldLastName,
			Kind:        model.InputText,
			Placeholder: "Doe",
		},
		{
			Question:    "What's your email address?",
			Subtext:     "We'll send your solar savings estimate here",
			Field:       model.FieldEmail,
			Kind:        model.InputEmail,
			Placeholder: "john@example.com",
		},
		{
			Question:    "What's your phone number?",
			Subtext:     "We'll only use this to discuss your solar options",
			Field:       model.FieldPhone,
			Kind:        model.InputTel,
			Placeholder: "0400 000 000",
		},
		{
			Question: "Upload your latest electricity bill",
			Subtext:  "This helps us provide a more accurate savings estimate (optional)",
			Field:    model.FieldAttachment,
			Kind:     model.InputFile,
		},
	}
}
