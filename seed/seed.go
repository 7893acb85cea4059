// Package seed loads the embedded demo users and recipes. Loading is
// idempotent: rows that already exist (by username or slug) are skipped.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/config"
	"github.com/akshayUniverse/cook-ease-sub001/recipes"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "cookease-demo"

//go:embed data.yaml
var rawData []byte

// Data is the parsed seed file.
type Data struct {
	Users   []User   `yaml:"users"`
	Recipes []Recipe `yaml:"recipes"`
}

// User is a seeded account.
type User struct {
	Username    string `yaml:"username"`
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
	Bio         string `yaml:"bio"`
}

// Recipe is a seeded recipe, attributed to a seeded user by username.
type Recipe struct {
	Author      string       `yaml:"author"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Cuisine     string       `yaml:"cuisine"`
	Difficulty  string       `yaml:"difficulty"`
	PrepMinutes int          `yaml:"prep_minutes"`
	CookMinutes int          `yaml:"cook_minutes"`
	Servings    int          `yaml:"servings"`
	Tags        []string     `yaml:"tags"`
	DietTags    []string     `yaml:"diet_tags"`
	ImageURL    string       `yaml:"image_url"`
	Ingredients []Ingredient `yaml:"ingredients"`
	Steps       []string     `yaml:"steps"`
}

// Ingredient is one seeded ingredient line.
type Ingredient struct {
	Name     string   `yaml:"name"`
	Quantity *float64 `yaml:"quantity"`
	Unit     string   `yaml:"unit"`
}

// Result counts the rows a run actually inserted.
type Result struct {
	Users   int `json:"seeded_users"`
	Recipes int `json:"seeded_recipes"`
}

// Parse decodes seed YAML and checks that every recipe has a known author.
func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	authors := make(map[string]bool, len(d.Users))
	for _, u := range d.Users {
		if u.Username == "" || u.Email == "" {
			return nil, fmt.Errorf("seed user needs username and email: %+v", u)
		}
		authors[u.Username] = true
	}
	for _, r := range d.Recipes {
		if !authors[r.Author] {
			return nil, fmt.Errorf("seed recipe %q has unknown author %q", r.Title, r.Author)
		}
		if r.Servings < 1 || len(r.Ingredients) == 0 || len(r.Steps) == 0 {
			return nil, fmt.Errorf("seed recipe %q needs servings, ingredients and steps", r.Title)
		}
	}
	return &d, nil
}

// Embedded returns the seed data compiled into the binary.
func Embedded() (*Data, error) {
	return Parse(rawData)
}

// Open connects sqlx to the database described by cfg.
func Open(ctx context.Context, cfg *config.PoolConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to open seed connection", err)
	}
	db.SetMaxOpenConns(2)
	return db, nil
}

// Seeder loads Data into Postgres.
type Seeder struct {
	db   *sqlx.DB
	data *Data
}

// NewSeeder creates a Seeder for the embedded data.
func NewSeeder(db *sqlx.DB) (*Seeder, error) {
	data, err := Embedded()
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, data: data}, nil
}

// Seed inserts everything in one transaction.
func (s *Seeder) Seed(ctx context.Context) (res *Result, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin seed transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else if err = tx.Commit(); err != nil {
			res = nil
			err = apperror.NewDatabaseError("failed to commit seed data", err)
		}
	}()

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash demo password", err)
	}

	res = &Result{}
	for _, u := range s.data.Users {
		inserted, err := insertUser(ctx, tx, u, string(hash))
		if err != nil {
			return nil, err
		}
		if inserted {
			res.Users++
		}
	}

	authorIDs := map[string]int{}
	for _, r := range s.data.Recipes {
		authorID, ok := authorIDs[r.Author]
		if !ok {
			if err = tx.GetContext(ctx, &authorID, `SELECT id FROM users WHERE username = $1`, r.Author); err != nil {
				return nil, apperror.NewDatabaseError(fmt.Sprintf("failed to look up seed author %s", r.Author), err)
			}
			authorIDs[r.Author] = authorID
		}
		inserted, err := insertRecipe(ctx, tx, authorID, r)
		if err != nil {
			return nil, err
		}
		if inserted {
			res.Recipes++
		}
	}

	log.Printf("Seed: inserted %d users and %d recipes", res.Users, res.Recipes)
	return res, nil
}

func insertUser(ctx context.Context, tx *sqlx.Tx, u User, hash string) (bool, error) {
	result, err := tx.NamedExecContext(ctx, `
		INSERT INTO users (username, email, password, display_name, bio)
		VALUES (:username, :email, :password, :display_name, :bio)
		ON CONFLICT DO NOTHING`,
		map[string]interface{}{
			"username":     u.Username,
			"email":        strings.ToLower(u.Email),
			"password":     hash,
			"display_name": u.DisplayName,
			"bio":          u.Bio,
		})
	if err != nil {
		return false, apperror.NewDatabaseError(fmt.Sprintf("failed to seed user %s", u.Username), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, apperror.NewDatabaseError("failed to read seed result", err)
	}
	return n == 1, nil
}

// orEmpty keeps pq from sending NULL for a tag list the YAML left out.
func orEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func insertRecipe(ctx context.Context, tx *sqlx.Tx, authorID int, r Recipe) (bool, error) {
	var imageKey *string
	if r.ImageURL != "" {
		imageKey = &r.ImageURL
	}

	var ids []int
	err := tx.SelectContext(ctx, &ids, `
		INSERT INTO recipes (author_id, title, slug, description, cuisine, difficulty,
		                     prep_minutes, cook_minutes, servings, tags, diet_tags, image_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (slug) DO NOTHING
		RETURNING id`,
		authorID, r.Title, recipes.Slugify(r.Title), r.Description, strings.ToLower(r.Cuisine), r.Difficulty,
		r.PrepMinutes, r.CookMinutes, r.Servings, pq.Array(orEmpty(r.Tags)), pq.Array(orEmpty(r.DietTags)), imageKey,
	)
	if err != nil {
		return false, apperror.NewDatabaseError(fmt.Sprintf("failed to seed recipe %q", r.Title), err)
	}
	if len(ids) == 0 {
		return false, nil
	}
	recipeID := ids[0]

	for i, ing := range r.Ingredients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, position, name, quantity, unit) VALUES ($1, $2, $3, $4, $5)`,
			recipeID, i+1, ing.Name, ing.Quantity, ing.Unit); err != nil {
			return false, apperror.NewDatabaseError(fmt.Sprintf("failed to seed ingredients of %q", r.Title), err)
		}
	}
	for i, step := range r.Steps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_steps (recipe_id, position, instruction) VALUES ($1, $2, $3)`,
			recipeID, i+1, step); err != nil {
			return false, apperror.NewDatabaseError(fmt.Sprintf("failed to seed steps of %q", r.Title), err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO recipe_stats (recipe_id) VALUES ($1) ON CONFLICT DO NOTHING`, recipeID); err != nil {
		return false, apperror.NewDatabaseError("failed to seed recipe stats", err)
	}
	return true, nil
}

// Run opens a short-lived connection, seeds, and closes it again.
func Run(ctx context.Context, cfg *config.PoolConfig) (*Result, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	seeder, err := NewSeeder(db)
	if err != nil {
		return nil, apperror.NewInternalError("invalid embedded seed data", err)
	}
	return seeder.Seed(ctx)
}
