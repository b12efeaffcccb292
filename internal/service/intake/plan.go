package intake

import (
	"context"
	"fmt"

	"inkwell/internal/domain"
	"inkwell/internal/service/parse"
	"inkwell/internal/service/store"
)

// Plan decisions.
const (
	DecisionYes    = "yes"
	DecisionRevise = "revise"
	DecisionSkip   = "skip"
	DecisionCancel = "cancel"
)

// planState tracks a multi-step plan through its per-group loop.
// Groups commit independently; nothing already executed rolls back.
type planState struct {
	groups           []parse.PlanGroup
	index            int
	pageID           string
	focusSectionID   string
	summary          PlanSummary
	awaitingRevision bool
}

func (c *Coordinator) startPlan(userID string, req SubmitRequest, result *parse.Result) (*Outcome, error) {
	state := &planState{
		groups:         result.Plan,
		pageID:         req.PageID,
		focusSectionID: req.SectionID,
	}
	outcome := c.park(userID, &pendingIntake{plan: state, degraded: result.Degraded}, &Outcome{
		Status:   StatusPlanGroup,
		Group:    state.prompt(),
		Degraded: result.Degraded,
	})
	return outcome, nil
}

func (p *planState) prompt() *GroupPrompt {
	group := p.groups[p.index]
	return &GroupPrompt{
		Index:       p.index,
		Total:       len(p.groups),
		Description: group.Description,
		Previews:    group.Previews,
	}
}

// AdvanceRequest answers the current plan group
type AdvanceRequest struct {
	PendingID string `json:"pending_id"`
	Decision  string `json:"decision"`
}

// Advance applies the caller's decision to the current plan group and
// either presents the next group or finishes the plan.
func (c *Coordinator) Advance(ctx context.Context, userID string, req AdvanceRequest) (*Outcome, error) {
	parked, err := c.take(userID, req.PendingID)
	if err != nil {
		return nil, err
	}
	if parked.plan == nil {
		c.unpark(userID, parked)
		return nil, fmt.Errorf("%w: pending intake is not a plan", domain.ErrValidation)
	}
	state := parked.plan

	switch req.Decision {
	case DecisionYes:
		c.executeGroup(ctx, userID, state, state.groups[state.index].Actions)
		state.index++

	case DecisionSkip:
		group := state.groups[state.index]
		state.summary.Skipped += groupSize(group)
		state.index++

	case DecisionRevise:
		state.awaitingRevision = true
		c.unpark(userID, parked)
		return &Outcome{
			Status:    StatusRevise,
			PendingID: parked.id,
			Group:     state.prompt(),
		}, nil

	case DecisionCancel:
		c.logger.Info("plan cancelled", "user_id", userID, "groups_done", state.index)
		return &Outcome{Status: StatusCancelled, Summary: &state.summary}, nil

	default:
		c.unpark(userID, parked)
		return nil, fmt.Errorf("%w: decision must be yes, revise, skip or cancel", domain.ErrValidation)
	}

	if state.index >= len(state.groups) {
		return &Outcome{Status: StatusPlanDone, Summary: &state.summary}, nil
	}
	c.unpark(userID, parked)
	return &Outcome{
		Status:    StatusPlanGroup,
		PendingID: parked.id,
		Group:     state.prompt(),
		Summary:   &state.summary,
	}, nil
}

// submitRevision replaces the current group with a freshly parsed
// utterance, executes it, and moves on.
func (c *Coordinator) submitRevision(ctx context.Context, userID string, parked *pendingIntake, utterance string) (*Outcome, error) {
	state := parked.plan
	state.awaitingRevision = false

	parseCtx, err := c.buildContext(ctx, userID, state.pageID)
	if err != nil {
		c.unpark(userID, parked)
		return nil, err
	}
	result, err := c.parser.Parse(ctx, utterance, parseCtx)
	if err != nil {
		c.unpark(userID, parked)
		return nil, err
	}

	var actions []parse.Proposal
	switch {
	case len(result.Plan) > 0:
		for _, group := range result.Plan {
			actions = append(actions, group.Actions...)
		}
	case result.Proposal != nil:
		actions = []parse.Proposal{*result.Proposal}
	}

	c.executeGroup(ctx, userID, state, actions)
	state.index++

	if state.index >= len(state.groups) {
		return &Outcome{Status: StatusPlanDone, Summary: &state.summary}, nil
	}
	c.unpark(userID, parked)
	return &Outcome{
		Status:    StatusPlanGroup,
		PendingID: parked.id,
		Group:     state.prompt(),
		Summary:   &state.summary,
	}, nil
}

// executeGroup runs the group's actions in declared order. Failures
// are counted, logged and do not stop the remaining actions.
func (c *Coordinator) executeGroup(ctx context.Context, userID string, state *planState, actions []parse.Proposal) {
	for i := range actions {
		if err := c.executeAction(ctx, userID, state, &actions[i]); err != nil {
			state.summary.Failed++
			c.logger.Warn("plan action failed", "user_id", userID, "group", state.index, "action", i, "error", err)
			continue
		}
		state.summary.Succeeded++
	}
}

// executeAction applies one confirmed plan action. The group was
// accepted as a whole, so proposed pages and sections are created
// without further prompting.
func (c *Coordinator) executeAction(ctx context.Context, userID string, state *planState, action *parse.Proposal) error {
	pageID := state.pageID
	if action.Page != "" {
		existing, err := c.findPageByName(ctx, userID, action.Page)
		if err != nil {
			return err
		}
		switch {
		case existing != "":
			pageID = existing
		case action.NewPage:
			page, err := c.pages.Create(ctx, userID, store.CreatePageRequest{Name: action.Page})
			if err != nil {
				return err
			}
			pageID = page.ID
		}
	}
	if pageID == "" {
		return fmt.Errorf("%w: no target page for plan action", domain.ErrValidation)
	}

	sectionID := ""
	if action.Section != "" {
		section, err := c.sections.ResolveByName(ctx, userID, pageID, action.Section)
		if err == nil {
			sectionID = section.ID
		} else if action.NewSection {
			created, err := c.sections.Create(ctx, userID, store.CreateSectionRequest{PageID: pageID, Name: action.Section})
			if err != nil {
				return err
			}
			sectionID = created.ID
		}
	}
	if sectionID == "" {
		sectionID = state.focusSectionID
	}
	if sectionID == "" {
		return fmt.Errorf("%w: no target section for plan action", domain.ErrValidation)
	}

	_, err := c.writeToSection(ctx, userID, sectionID, action)
	return err
}

func groupSize(group parse.PlanGroup) int {
	if len(group.Actions) > 0 {
		return len(group.Actions)
	}
	if group.ActionCount > 0 {
		return group.ActionCount
	}
	return 1
}
