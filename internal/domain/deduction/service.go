package deduction

import (
	"context"
	"fmt"

	"larder/internal/core/apperror"
	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/core/tx"
	"larder/internal/core/types"
	"larder/internal/domain/availability"
	"larder/internal/domain/catalogs/recipe"
	"larder/internal/domain/ledger"
	"larder/pkg/logger"
)

// Service orchestrates stock deduction across an entire order. It is the
// only component with write side effects beyond the ledger's own
// bookkeeping. Policy: per-line atomicity, not whole-order atomicity -
// unavailable items don't block available ones, mirroring real kitchens.
type Service struct {
	recipes   *recipe.Service
	ledger    *ledger.Service
	repo      ledger.Repository
	txManager tx.Manager
}

// NewService creates a new deduction orchestrator. Dependencies are passed
// explicitly; the orchestrator holds no global state.
func NewService(recipes *recipe.Service, ledgerSvc *ledger.Service, repo ledger.Repository, txManager tx.Manager) *Service {
	return &Service{
		recipes:   recipes,
		ledger:    ledgerSvc,
		repo:      repo,
		txManager: txManager,
	}
}

// ProcessOrder deducts stock for every order line. Lines without a recipe
// are skipped, infeasible lines fail individually, and the rest commit.
// The returned result carries successes and failures side by side; errors
// never propagate past this boundary except fatal invariant violations.
func (s *Service) ProcessOrder(ctx context.Context, orderID string, lines []OrderLine, actorID string) (*Result, error) {
	if orderID == "" {
		return nil, apperror.NewValidation("order id is required")
	}

	result := &Result{OrderID: orderID}

	for _, line := range lines {
		lr, err := s.processLine(ctx, orderID, line, actorID)
		if err != nil {
			// Invariant violations halt further processing and surface
			// to the operator.
			return result, err
		}
		result.addLine(lr)
	}

	ordersProcessed.Inc()
	linesFailed.Add(float64(len(result.FailedLines)))
	movementsCreated.Add(float64(result.MovementsCreated))

	logger.Info(ctx, "order stock deduction finished",
		"order_id", orderID,
		"processed", len(result.ProcessedLines),
		"skipped", len(result.SkippedLines),
		"failed", len(result.FailedLines),
		"movements", result.MovementsCreated,
	)
	return result, nil
}

// processLine handles one order line with per-line atomicity: the plan for
// every ingredient is built on locked batch rows, and nothing commits
// unless every required ingredient is fully allocatable.
func (s *Service) processLine(ctx context.Context, orderID string, line OrderLine, actorID string) (LineResult, error) {
	lr := LineResult{ProductID: line.ProductID, Quantity: line.Quantity}

	if line.Quantity <= 0 {
		lr.Status = LineFailed
		lr.Error = apperror.NewValidation("line quantity must be positive").
			WithDetail("product_id", line.ProductID.String())
		return lr, nil
	}

	resolved, err := s.recipes.Resolve(ctx, line.ProductID)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeNoRecipe) {
			lr.Status = LineSkipped
			return lr, nil
		}
		return lr, fmt.Errorf("resolve recipe for %s: %w", line.ProductID, err)
	}

	requirements := recipe.Scale(resolved.Recipe, line.Quantity)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Plan phase: lock each ingredient's batches and build the FIFO
		// consumption plan. Locks hold until commit, so the snapshot
		// cannot be overdrawn by a concurrent order.
		plans := make([]Plan, 0, len(requirements))
		var shortages []map[string]any
		for _, req := range requirements {
			batches, err := s.repo.ListAvailableBatchesForUpdate(ctx, req.IngredientID)
			if err != nil {
				return fmt.Errorf("lock batches for %s: %w", req.IngredientID, err)
			}

			plan := SelectBatchesForConsumption(batches, req.Quantity)
			if !plan.Covered() {
				if req.IsOptional {
					// Optional shortages never block the line.
					lr.OmittedOptional = append(lr.OmittedOptional, req.IngredientID)
					continue
				}
				// Keep planning the remaining ingredients so the caller
				// learns every shortfall at once, not just the first.
				shortages = append(shortages, map[string]any{
					"ingredient_id": req.IngredientID.String(),
					"required":      req.Quantity.Float64(),
					"available":     (req.Quantity - plan.Shortage).Float64(),
					"shortage":      plan.Shortage.Float64(),
				})
				continue
			}
			plans = append(plans, plan)
		}
		if len(shortages) > 0 {
			return apperror.NewInsufficientIngredients(line.ProductID.String()).
				WithDetail("shortages", shortages)
		}

		// Commit phase: apply every planned allocation. ApplyMovement
		// re-validates each batch inside the same transaction.
		for _, plan := range plans {
			for _, alloc := range plan.Allocations {
				m, err := s.ledger.ApplyMovement(ctx, ledger.MovementRequest{
					BatchID:       alloc.BatchID,
					Delta:         alloc.Quantity.Neg(),
					Type:          entity.MovementOut,
					ReferenceType: entity.RefOrder,
					ReferenceID:   orderID,
					Actor:         actorID,
				})
				if err != nil {
					return err
				}
				lr.MovementLineIDs = append(lr.MovementLineIDs, m.LineID)
			}
		}
		return nil
	})

	if err != nil {
		// The transaction rolled back: no movements stand for this line.
		lr.MovementLineIDs = nil
		lr.OmittedOptional = nil

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Code == apperror.CodeInternalInvariant {
				return lr, appErr
			}
			lr.Status = LineFailed
			lr.Error = appErr
			return lr, nil
		}
		lr.Status = LineFailed
		lr.Error = apperror.NewInternal(err)
		return lr, nil
	}

	lr.Status = LineProcessed
	return lr, nil
}

// Simulate previews an order without writing: identical resolution and
// availability logic, plus projected post-deduction totals per ingredient.
// Consumption is accounted line by line, so two lines sharing an ingredient
// see each other's demand.
func (s *Service) Simulate(ctx context.Context, orderID string, lines []OrderLine) (*SimulationResult, error) {
	result := &SimulationResult{
		OrderID:            orderID,
		Feasible:           true,
		ProjectedRemaining: make(map[id.ID]types.Quantity),
	}

	totals := make(map[id.ID]types.Quantity)
	known := make(map[id.ID]bool)

	for _, line := range lines {
		sl := SimulatedLine{ProductID: line.ProductID, Quantity: line.Quantity}

		resolved, err := s.recipes.Resolve(ctx, line.ProductID)
		if err != nil {
			if apperror.HasCode(err, apperror.CodeNoRecipe) {
				sl.Status = LineSkipped
				result.Lines = append(result.Lines, sl)
				continue
			}
			return nil, fmt.Errorf("resolve recipe for %s: %w", line.ProductID, err)
		}

		for _, recLine := range resolved.Lines {
			if !known[recLine.IngredientID] {
				total, err := s.availableTotal(ctx, recLine.IngredientID)
				if err != nil {
					return nil, err
				}
				totals[recLine.IngredientID] = total
				known[recLine.IngredientID] = true
			}
		}

		check := availability.Check(resolved.Recipe, line.Quantity, totals)
		sl.Availability = check

		if !check.Feasible {
			sl.Status = LineFailed
			result.Feasible = false
			result.Lines = append(result.Lines, sl)
			continue
		}

		// Deduct this line's demand from the running totals so later
		// lines see the projected state.
		for _, la := range check.Lines {
			consumed := la.Required
			if la.IsOptional && la.Shortage.IsPositive() {
				consumed = 0
			}
			totals[la.IngredientID] -= consumed
		}

		sl.Status = LineProcessed
		result.Lines = append(result.Lines, sl)
	}

	for ingID := range known {
		result.ProjectedRemaining[ingID] = totals[ingID]
	}
	return result, nil
}

// CheckRecipeAvailability runs the feasibility check for a recipe at a
// given serving count against current batch totals.
func (s *Service) CheckRecipeAvailability(ctx context.Context, recipeID id.ID, servings int) (availability.Result, error) {
	if servings <= 0 {
		return availability.Result{}, apperror.NewValidation("servings must be positive")
	}

	resolved, err := s.recipes.ResolveByID(ctx, recipeID)
	if err != nil {
		return availability.Result{}, err
	}

	totals := make(map[id.ID]types.Quantity, len(resolved.Lines))
	for _, line := range resolved.Lines {
		total, err := s.availableTotal(ctx, line.IngredientID)
		if err != nil {
			return availability.Result{}, err
		}
		totals[line.IngredientID] = total
	}

	return availability.Check(resolved.Recipe, servings, totals), nil
}

// Revert compensates every out movement recorded for the order: one `in`
// reversal of equal magnitude against the same batch, resurrecting depleted
// or expired batches. Idempotent - movements already compensated by a prior
// revert are skipped, and an order with no deductions is a no-op success.
// Reversal never re-derives quantities: it always mirrors the recorded
// movements, so it stays correct even after other orders consumed from the
// same batches.
func (s *Service) Revert(ctx context.Context, orderID, reason, actorID string) (*RevertResult, error) {
	if orderID == "" {
		return nil, apperror.NewValidation("order id is required")
	}

	result := &RevertResult{OrderID: orderID}

	outs, err := s.repo.ListMovementsByReference(ctx, entity.RefOrder, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order movements: %w", err)
	}

	reversals, err := s.repo.ListMovementsByReference(ctx, entity.RefReversal, orderID)
	if err != nil {
		return nil, fmt.Errorf("list reversal movements: %w", err)
	}
	reversed := make(map[id.ID]bool, len(reversals))
	for _, r := range reversals {
		if r.ReversesLineID != nil {
			reversed[*r.ReversesLineID] = true
		}
	}

	for _, m := range outs {
		if m.Type != entity.MovementOut {
			continue
		}
		if reversed[m.LineID] {
			result.AlreadyReverted++
			continue
		}

		lineID := m.LineID
		_, err := s.ledger.ApplyMovement(ctx, ledger.MovementRequest{
			BatchID:        m.BatchID,
			Delta:          m.Quantity.Neg(), // out is negative; restore the magnitude
			Type:           entity.MovementReversal,
			ReferenceType:  entity.RefReversal,
			ReferenceID:    orderID,
			ReversesLineID: &lineID,
			Actor:          actorID,
		})
		if err != nil {
			appErr, ok := apperror.AsAppError(err)
			if !ok {
				appErr = apperror.NewInternal(err)
			}
			if appErr.Code == apperror.CodeInternalInvariant {
				return result, appErr
			}
			// Over-restore and ledger errors fail this compensation only;
			// remaining movements still revert.
			result.Failures = append(result.Failures, RevertFailure{
				MovementLineID: m.LineID,
				BatchID:        m.BatchID,
				Error:          appErr,
			})
			continue
		}
		result.MovementsReverted++
	}

	logger.Info(ctx, "order stock deduction reverted",
		"order_id", orderID,
		"reason", reason,
		"reverted", result.MovementsReverted,
		"already_reverted", result.AlreadyReverted,
		"failures", len(result.Failures),
	)
	return result, nil
}

// availableTotal sums remaining quantity across an ingredient's consumable
// batches. Zero active batches means zero available, not an error.
func (s *Service) availableTotal(ctx context.Context, ingredientID id.ID) (types.Quantity, error) {
	batches, err := s.repo.ListAvailableBatches(ctx, ingredientID)
	if err != nil {
		return 0, fmt.Errorf("list batches for %s: %w", ingredientID, err)
	}
	var total types.Quantity
	for _, b := range batches {
		total += b.QuantityRemaining
	}
	return total, nil
}
