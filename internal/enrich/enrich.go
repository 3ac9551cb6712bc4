// Package enrich produces AI implementation suggestions for a matched grant
// program. Two backends are supported: the hosted edge function used in
// production and a direct OpenAI-compatible endpoint. Every failure path
// lands on a static per-program fallback so a report is always produced.
package enrich

import (
	"context"
	"fmt"

	"github.com/aivira/grantdna/internal/model"
)

// ConsentPurpose is recorded with every enrichment request.
const ConsentPurpose = "Grant matching & contact"

// Version is the questionnaire schema version sent to the edge function.
const Version = 1

// Enricher generates suggestions for the given answers and program.
// Implementations return an error on any failure; callers substitute
// Fallback content and never surface the error to the user.
type Enricher interface {
	Enrich(ctx context.Context, a model.Answers, program model.Program) (model.Enrichment, error)
}

// genericSuggestions are used when the backend answers with prose instead of
// structured suggestions, and inside the unknown-program fallback.
var genericSuggestions = []string{
	"Consider documenting your project timeline and milestones clearly",
	"Ensure your budget breakdown aligns with grant requirements",
	"Prepare detailed success metrics for your project outcomes",
}

var fallbacks = map[model.Program]model.Enrichment{
	model.ProgramMRA: {
		Suggestions: []string{
			"Develop localized marketing strategy and market entry plan for target overseas markets",
			"Implement multilingual customer support system with local market knowledge",
			"Establish partnerships with local distributors and service providers in target markets",
		},
		Reasoning: "These solutions directly address overseas market expansion through market research, localization, and partnership building that can be funded via MRA grants.",
	},
	model.ProgramPSG: {
		Suggestions: []string{
			"Implement Salesforce CRM with automated lead scoring and pipeline management to streamline sales processes",
			"Deploy Microsoft Power BI for real-time business intelligence and data-driven decision making",
			"Integrate Zapier automation workflows to connect existing systems and eliminate manual data entry",
		},
		Reasoning: "These solutions directly address productivity improvement through specific technology implementations that can be funded via PSG grants.",
	},
	model.ProgramEDG: {
		Suggestions: []string{
			"Develop comprehensive business transformation roadmap with change management framework",
			"Implement enterprise-wide digital transformation initiative with advanced analytics",
			"Establish strategic partnerships and capability development programs for long-term growth",
		},
		Reasoning: "These solutions directly address business transformation and capability development through strategic initiatives that can be funded via EDG grants.",
	},
}

// Fallback returns the static suggestion set for a program. Unknown program
// ids get a generic set, so the result is always usable.
func Fallback(program model.Program) model.Enrichment {
	if e, ok := fallbacks[program]; ok {
		return e
	}
	return model.Enrichment{
		Suggestions: genericSuggestions,
		Reasoning:   "These suggestions focus on common grant application requirements.",
	}
}

type grantContext struct {
	description string
	examples    string
}

func contextFor(program model.Program) grantContext {
	switch program {
	case model.ProgramMRA:
		return grantContext{
			description: "MRA (Market Readiness Assistance) focuses on overseas market expansion and international growth. Solutions should help businesses enter new markets, establish presence, and build international capabilities.",
			examples: `Examples:
- If goal is "expand overseas" + description mentions "e-commerce": "Deploy localized e-commerce platform with multi-currency support and regional payment gateways for target markets"
- If goal is "expand overseas" + description mentions "customer service": "Implement multilingual customer support system with local market knowledge and cultural adaptation"`,
		}
	case model.ProgramPSG:
		return grantContext{
			description: "PSG (Productivity Solutions Grant) focuses on IT adoption, automation, and productivity improvements. Solutions should leverage pre-approved IT solutions and technology to enhance business efficiency.",
			examples: `Examples:
- If goal is "automate ops" + description mentions "CRM": "Implement Salesforce CRM with automated lead scoring and pipeline management to streamline sales processes"
- If goal is "improve internal processes" + description mentions "accounting": "Deploy Xero accounting software with automated invoice processing and financial reporting workflows"`,
		}
	case model.ProgramEDG:
		return grantContext{
			description: "EDG (Enterprise Development Grant) focuses on business transformation and capability development. Solutions should address strategic business challenges and enhance long-term competitiveness.",
			examples: `Examples:
- If goal is "improve internal processes" + description mentions "strategy": "Develop comprehensive business transformation roadmap with change management framework and performance metrics"
- If goal is "automate ops" + description mentions "innovation": "Implement enterprise-wide digital transformation initiative with advanced analytics and process optimization"`,
		}
	default:
		return grantContext{
			description: "Provide implementation solutions that address the project's specific goals and requirements.",
			examples: `Examples:
- Focus on practical, implementable solutions within the specified budget and timeline
- Address the specific business challenges mentioned in the project description`,
		}
	}
}

// BuildPrompt assembles the enrichment prompt for the matched program.
func BuildPrompt(a model.Answers, program model.Program) string {
	gc := contextFor(program)
	return fmt.Sprintf(`You are a Singapore %[1]s expert. Based on this SME's project data, provide 3 specific, actionable implementation solutions that can be funded through %[1]s grants.

Form Data:
- Primary Goal: %[2]s
- Budget: %[3]s
- Project Description: %[4]s
- Company Size: %[5]s
- Financial Viability: %[6]s
- Singapore Registered: %[7]s
- Local Shareholding: %[8]s
- Start Timeline: %[9]s

%[10]s

Focus on providing 3 actual implementation solutions that:
1. Directly address their specific project goal and description
2. Are practical and implementable within their budget and timeline
3. Solve real business problems they're facing
4. Can be funded specifically through %[1]s grants

%[11]s

Return exactly 3 implementation solutions, each 1-2 sentences, focused on specific tools, technologies, or processes they can implement using %[1]s funding.
Format as JSON: {"suggestions": ["solution1", "solution2", "solution3"], "reasoning": "brief explanation of how these solutions address their specific project needs and align with %[1]s requirements"}`,
		program,
		a.PrimaryGoal,
		a.EstimatedBudget,
		a.ProjectDescription,
		a.EmployeeCount,
		a.FinancialViability,
		a.SingaporeRegistered,
		a.LocalShareholding,
		a.StartTimeline,
		gc.description,
		gc.examples,
	)
}
