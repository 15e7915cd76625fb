package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

const ruleColumns = `
	id, name, priority, is_active, rule_type, condition_logic,
	conditions, actions, match_phone, prompt_text,
	transfer_to_account_id, created_at, updated_at`

// CreateRule stores a new automation rule, assigning an ID when empty.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.AutomationRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	return s.createRuleTx(ctx, s.db, rule)
}

func (s *SQLiteStorage) createRuleTx(ctx context.Context, q queryable, rule *model.AutomationRule) error {
	if rule.ID == "" {
		rule.ID = s.newID()
	}
	if rule.ConditionLogic == "" {
		rule.ConditionLogic = model.LogicAnd
	}

	conditions, actions, err := encodeRule(rule)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	query := `
		INSERT INTO automation_rules (
			id, name, priority, is_active, rule_type, condition_logic,
			conditions, actions, match_phone, prompt_text,
			transfer_to_account_id, set_account, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		rule.ID, rule.Name, rule.Priority, rule.IsActive, rule.RuleType, rule.ConditionLogic,
		conditions, actions, rule.MatchPhone, rule.PromptText,
		rule.TransferToAccountID, detectionTarget(rule), rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create automation rule: %w", classifyError(err))
	}

	return nil
}

// GetRule retrieves an automation rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id string) (*model.AutomationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getRuleTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getRuleTx(ctx context.Context, q queryable, id string) (*model.AutomationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automation_rules WHERE id = ?`

	rule, err := scanRule(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("automation rule %q: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get automation rule: %w", err)
	}
	return rule, nil
}

// GetRules retrieves every automation rule, active or not, in evaluation order.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.AutomationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getRulesTx(ctx, s.db, false)
}

// GetActiveRules retrieves the active automation rules in evaluation order.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context) ([]model.AutomationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getRulesTx(ctx, s.db, true)
}

func (s *SQLiteStorage) getRulesTx(ctx context.Context, q queryable, activeOnly bool) ([]model.AutomationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automation_rules`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY priority DESC, created_at ASC, id ASC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query automation rules: %w", classifyError(err))
	}
	defer func() { _ = rows.Close() }()

	rules := []model.AutomationRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating automation rules: %w", err)
	}

	return rules, nil
}

// UpdateRule replaces an existing automation rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.AutomationRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	return s.updateRuleTx(ctx, s.db, rule)
}

func (s *SQLiteStorage) updateRuleTx(ctx context.Context, q queryable, rule *model.AutomationRule) error {
	if err := validateString(rule.ID, "id"); err != nil {
		return err
	}

	conditions, actions, err := encodeRule(rule)
	if err != nil {
		return err
	}
	rule.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE automation_rules
		SET name = ?, priority = ?, is_active = ?, rule_type = ?, condition_logic = ?,
			conditions = ?, actions = ?, match_phone = ?, prompt_text = ?,
			transfer_to_account_id = ?, set_account = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := q.ExecContext(ctx, query,
		rule.Name, rule.Priority, rule.IsActive, rule.RuleType, rule.Logic(),
		conditions, actions, rule.MatchPhone, rule.PromptText,
		rule.TransferToAccountID, detectionTarget(rule), rule.UpdatedAt,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update automation rule: %w", classifyError(err))
	}

	return requireAffected(result, "automation rule", rule.ID)
}

// DeleteRule removes an automation rule.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.deleteRuleTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deleteRuleTx(ctx context.Context, q queryable, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM automation_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete automation rule: %w", classifyError(err))
	}
	return requireAffected(result, "automation rule", id)
}

// InsertDetectionRules stores account_detection drafts in a single
// transaction. Coverage is re-checked inside the transaction so a concurrent
// run cannot create a second rule for the same account.
func (s *SQLiteStorage) InsertDetectionRules(ctx context.Context, rules []model.AutomationRule) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var created int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := s.insertDetectionRulesTx(ctx, tx, rules)
		created = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *SQLiteStorage) insertDetectionRulesTx(ctx context.Context, q queryable, rules []model.AutomationRule) (int, error) {
	created := 0
	for i := range rules {
		rule := rules[i]
		accountID, ok := rule.DetectedAccount()
		if !ok || accountID == "" {
			return created, fmt.Errorf("%w: %q is not an account_detection rule with set_account", ErrInvalidRule, rule.Name)
		}
		if err := validateRule(&rule); err != nil {
			return created, err
		}

		var existing int
		err := q.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM automation_rules
			WHERE rule_type = ? AND set_account = ?`,
			model.RuleTypeAccountDetection, accountID,
		).Scan(&existing)
		if err != nil {
			return created, fmt.Errorf("failed to check detection coverage: %w", classifyError(err))
		}
		if existing > 0 {
			continue
		}

		if err := s.createRuleTx(ctx, q, &rule); err != nil {
			return created, err
		}
		rules[i] = rule
		created++
	}
	return created, nil
}

// detectionTarget returns the denormalized set_account column value, which
// is only populated for account_detection rules.
func detectionTarget(rule *model.AutomationRule) *string {
	if id, ok := rule.DetectedAccount(); ok {
		return &id
	}
	return nil
}

func encodeRule(rule *model.AutomationRule) (string, string, error) {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode rule conditions: %w", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode rule actions: %w", err)
	}
	return string(conditions), string(actions), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.AutomationRule, error) {
	var rule model.AutomationRule
	var conditions, actions string
	var transferTo sql.NullString

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Priority, &rule.IsActive, &rule.RuleType, &rule.ConditionLogic,
		&conditions, &actions, &rule.MatchPhone, &rule.PromptText,
		&transferTo, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to decode conditions of rule %s: %w", rule.ID, err)
	}
	if err := json.Unmarshal([]byte(actions), &rule.Actions); err != nil {
		return nil, fmt.Errorf("failed to decode actions of rule %s: %w", rule.ID, err)
	}
	if transferTo.Valid {
		rule.TransferToAccountID = &transferTo.String
	}

	return &rule, nil
}

func requireAffected(result sql.Result, what, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", what, id, common.ErrNotFound)
	}
	return nil
}
