package shoppinglists

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
)

// Service is the shopping-list module as the handlers see it. Every method
// takes the caller's id and refuses lists owned by someone else.
type Service interface {
	Lists(ctx context.Context, ownerID int) ([]Summary, error)
	Create(ctx context.Context, ownerID int, name string) (*List, error)
	Get(ctx context.Context, ownerID, listID int) (*List, error)
	Rename(ctx context.Context, ownerID, listID int, name string) (*List, error)
	Delete(ctx context.Context, ownerID, listID int) error

	AddItem(ctx context.Context, ownerID, listID int, req AddItemRequest) (*Item, error)
	UpdateItem(ctx context.Context, ownerID, listID, itemID int, req UpdateItemRequest) (*Item, error)
	DeleteItem(ctx context.Context, ownerID, listID, itemID int) error
	ClearChecked(ctx context.Context, ownerID, listID int) (int64, error)

	// AddRecipe copies a recipe's ingredients onto the list. servings <= 0
	// means the recipe's own serving count.
	AddRecipe(ctx context.Context, ownerID, listID, recipeID, servings int) (*AddRecipeResponse, error)
}

// ListService implements Service on Postgres.
type ListService struct {
	db *pgxpool.Pool
}

// NewListService creates a ListService.
func NewListService(db *pgxpool.Pool) *ListService {
	return &ListService{db: db}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// checkOwner returns NotFound for a missing list and Unauthorized (403) for
// someone else's. lock takes a row lock inside a transaction.
func checkOwner(ctx context.Context, q querier, ownerID, listID int, lock bool) error {
	query := `SELECT owner_id FROM shopping_lists WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var actual int
	if err := q.QueryRow(ctx, query, listID).Scan(&actual); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFoundError(fmt.Sprintf("shopping list %d not found", listID), nil)
		}
		return apperror.NewDatabaseError("failed to load shopping list", err)
	}
	if actual != ownerID {
		return apperror.NewUnauthorizedError("this shopping list belongs to another user", nil)
	}
	return nil
}

const listColumns = `l.id, l.owner_id, l.name, l.created_at, l.updated_at,
	(SELECT COUNT(*) FROM shopping_list_items i WHERE i.list_id = l.id)`

func scanList(row pgx.Row) (*List, error) {
	l := List{Items: []Item{}}
	if err := row.Scan(&l.ID, &l.OwnerID, &l.Name, &l.CreatedAt, &l.UpdatedAt, &l.ItemCount); err != nil {
		return nil, err
	}
	return &l, nil
}

// Lists returns the caller's lists, newest first, with item counts.
func (s *ListService) Lists(ctx context.Context, ownerID int) ([]Summary, error) {
	rows, err := s.db.Query(ctx, `SELECT `+listColumns+` FROM shopping_lists l
		WHERE l.owner_id = $1 ORDER BY l.created_at DESC, l.id DESC`, ownerID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list shopping lists", err)
	}
	defer rows.Close()

	lists := []Summary{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan shopping list", err)
		}
		lists = append(lists, l.Summary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate shopping lists", err)
	}
	return lists, nil
}

// Create makes an empty list.
func (s *ListService) Create(ctx context.Context, ownerID int, name string) (*List, error) {
	l := &List{Summary: Summary{OwnerID: ownerID}, Items: []Item{}}
	err := s.db.QueryRow(ctx, `
		INSERT INTO shopping_lists (owner_id, name) VALUES ($1, $2)
		RETURNING id, name, created_at, updated_at`, ownerID, strings.TrimSpace(name),
	).Scan(&l.ID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create shopping list", err)
	}
	return l, nil
}

// Get returns the list with its items ordered by position.
func (s *ListService) Get(ctx context.Context, ownerID, listID int) (*List, error) {
	if err := checkOwner(ctx, s.db, ownerID, listID, false); err != nil {
		return nil, err
	}
	return s.load(ctx, s.db, listID)
}

func (s *ListService) load(ctx context.Context, q querier, listID int) (*List, error) {
	l, err := scanList(q.QueryRow(ctx, `SELECT `+listColumns+` FROM shopping_lists l WHERE l.id = $1`, listID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("shopping list %d not found", listID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to load shopping list", err)
	}

	rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM shopping_list_items
		WHERE list_id = $1 ORDER BY position, id`, listID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load items", err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan item", err)
		}
		l.Items = append(l.Items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate items", err)
	}
	return l, nil
}

// Rename changes the list name.
func (s *ListService) Rename(ctx context.Context, ownerID, listID int, name string) (*List, error) {
	if err := checkOwner(ctx, s.db, ownerID, listID, false); err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(ctx, `UPDATE shopping_lists SET name = $1, updated_at = NOW() WHERE id = $2`,
		strings.TrimSpace(name), listID); err != nil {
		return nil, apperror.NewDatabaseError("failed to rename shopping list", err)
	}
	return s.load(ctx, s.db, listID)
}

// Delete removes the list and its items.
func (s *ListService) Delete(ctx context.Context, ownerID, listID int) error {
	if err := checkOwner(ctx, s.db, ownerID, listID, false); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM shopping_lists WHERE id = $1`, listID); err != nil {
		return apperror.NewDatabaseError("failed to delete shopping list", err)
	}
	return nil
}

const itemColumns = `id, list_id, position, name, quantity, unit, checked, recipe_id, created_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.ListID, &it.Position, &it.Name, &it.Quantity, &it.Unit,
		&it.Checked, &it.RecipeID, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

const insertItemSQL = `
	INSERT INTO shopping_list_items (list_id, position, name, quantity, unit, recipe_id)
	VALUES ($1, (SELECT COALESCE(MAX(position), 0) + 1 FROM shopping_list_items WHERE list_id = $1), $2, $3, $4, $5)
	RETURNING ` + itemColumns

// AddItem appends an item at the end of the list.
func (s *ListService) AddItem(ctx context.Context, ownerID, listID int, req AddItemRequest) (*Item, error) {
	if err := checkOwner(ctx, s.db, ownerID, listID, false); err != nil {
		return nil, err
	}
	it, err := scanItem(s.db.QueryRow(ctx, insertItemSQL, listID,
		strings.TrimSpace(req.Name), req.Quantity, strings.TrimSpace(req.Unit), nil))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to add item", err)
	}
	s.touch(ctx, listID)
	return it, nil
}

// buildItemUpdate turns the non-nil fields of req into an UPDATE.
func buildItemUpdate(listID, itemID int, req UpdateItemRequest) (string, []interface{}) {
	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if req.Checked != nil {
		set("checked", *req.Checked)
	}
	if req.Name != nil {
		set("name", strings.TrimSpace(*req.Name))
	}
	if req.Quantity != nil {
		set("quantity", *req.Quantity)
	}
	if req.Unit != nil {
		set("unit", strings.TrimSpace(*req.Unit))
	}
	args = append(args, itemID, listID)
	query := fmt.Sprintf("UPDATE shopping_list_items SET %s WHERE id = $%d AND list_id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), itemColumns)
	return query, args
}

// UpdateItem applies a partial update to one item.
func (s *ListService) UpdateItem(ctx context.Context, ownerID, listID, itemID int, req UpdateItemRequest) (*Item, error) {
	if req.isEmpty() {
		return nil, apperror.NewBadRequestError("no fields provided for update", nil)
	}
	if err := checkOwner(ctx, s.db, ownerID, listID, false); err != nil {
		return nil, err
	}
	query, args := buildItemUpdate(listID, itemID, req)
	it, err := scanItem(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, itemNotFound(itemID)
		}
		return nil, apperror.NewDatabaseError("failed to update item", err)
	}
	s.touch(ctx, listID)
	return it, nil
}

func itemNotFound(itemID int) error {
	return apperror.NewNotFoundError(fmt.Sprintf("item %d not found", itemID), nil)
}

// DeleteItem removes one item.
func (s *ListService) DeleteItem(ctx context.Context, ownerID, listID, itemID int) error {
	if err := checkOwner(ctx, s.db, ownerID, listID, false); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM shopping_list_items WHERE id = $1 AND list_id = $2`, itemID, listID)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return itemNotFound(itemID)
	}
	s.touch(ctx, listID)
	return nil
}

// ClearChecked deletes every checked item and returns how many went.
func (s *ListService) ClearChecked(ctx context.Context, ownerID, listID int) (int64, error) {
	if err := checkOwner(ctx, s.db, ownerID, listID, false); err != nil {
		return 0, err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM shopping_list_items WHERE list_id = $1 AND checked`, listID)
	if err != nil {
		return 0, apperror.NewDatabaseError("failed to clear checked items", err)
	}
	if tag.RowsAffected() > 0 {
		s.touch(ctx, listID)
	}
	return tag.RowsAffected(), nil
}

// touch bumps updated_at; failure is not worth failing the request over.
func (s *ListService) touch(ctx context.Context, listID int) {
	_, _ = s.db.Exec(ctx, `UPDATE shopping_lists SET updated_at = NOW() WHERE id = $1`, listID)
}

// AddRecipe merges the recipe's ingredients into the list in one transaction.
// The list row is locked so concurrent adds do not double-insert lines.
func (s *ListService) AddRecipe(ctx context.Context, ownerID, listID, recipeID, servings int) (resp *AddRecipeResponse, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else if err = tx.Commit(ctx); err != nil {
			resp = nil
			err = apperror.NewDatabaseError("failed to commit shopping list", err)
		}
	}()

	if err = checkOwner(ctx, tx, ownerID, listID, true); err != nil {
		return nil, err
	}

	var recipeServings int
	if err = tx.QueryRow(ctx, `SELECT servings FROM recipes WHERE id = $1`, recipeID).Scan(&recipeServings); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = apperror.NewNotFoundError(fmt.Sprintf("recipe %d not found", recipeID), nil)
			return nil, err
		}
		err = apperror.NewDatabaseError("failed to load recipe", err)
		return nil, err
	}
	factor := 1.0
	if servings > 0 && recipeServings > 0 {
		factor = float64(servings) / float64(recipeServings)
	}

	ingredients, err := recipeIngredients(ctx, tx, recipeID)
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx, tx, listID)
	if err != nil {
		return nil, err
	}

	plan := Merge(current.Items, ingredients, factor)
	for _, u := range plan.Updates {
		if _, err = tx.Exec(ctx, `UPDATE shopping_list_items SET quantity = $1 WHERE id = $2`, u.Quantity, u.ItemID); err != nil {
			err = apperror.NewDatabaseError("failed to merge item", err)
			return nil, err
		}
	}
	for _, n := range plan.Inserts {
		if _, err = tx.Exec(ctx, insertItemSQL, listID, n.Name, n.Quantity, n.Unit, recipeID); err != nil {
			err = apperror.NewDatabaseError("failed to add item", err)
			return nil, err
		}
	}
	if _, err = tx.Exec(ctx, `UPDATE shopping_lists SET updated_at = NOW() WHERE id = $1`, listID); err != nil {
		err = apperror.NewDatabaseError("failed to update shopping list", err)
		return nil, err
	}

	list, err := s.load(ctx, tx, listID)
	if err != nil {
		return nil, err
	}
	return &AddRecipeResponse{List: list, Added: len(plan.Inserts), Merged: len(plan.Updates)}, nil
}

func recipeIngredients(ctx context.Context, tx pgx.Tx, recipeID int) ([]Ingredient, error) {
	rows, err := tx.Query(ctx, `SELECT name, quantity, unit FROM recipe_ingredients WHERE recipe_id = $1 ORDER BY position`, recipeID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipe ingredients", err)
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.Name, &ing.Quantity, &ing.Unit); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan ingredient", err)
		}
		out = append(out, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate ingredients", err)
	}
	return out, nil
}
