package repository

import (
	"context"

	"github.com/unclebandit/customers-app/internal/db"
	appErrors "github.com/unclebandit/customers-app/internal/errors"
	"github.com/unclebandit/customers-app/internal/model"
)

// CustomerRepositoryInterface defines methods used by service
type CustomerRepositoryInterface interface {
	EnsureSchema(ctx context.Context) error
	ListAll(ctx context.Context) ([]model.Customer, error)
	Create(ctx context.Context, name string) (model.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *db.Handle
}

// EnsureSchema creates the customers table if it is absent. Safe on every start.
func (r *CustomerRepository) EnsureSchema(ctx context.Context) error {
	err := r.DB.Transaction(ctx, func(tx *db.Tx) error {
		_, err := tx.Exec(r.DB.Dialect().CustomersDDL)
		return err
	})
	if err != nil {
		return appErrors.NewStorageOperationFailed("ensure_schema", err)
	}
	return nil
}

// ListAll fetches all customers in whatever order the engine returns them
func (r *CustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	customers := []model.Customer{}
	err := r.DB.Transaction(ctx, func(tx *db.Tx) error {
		rows, err := tx.Query(`SELECT id, name FROM customers`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c model.Customer
			var name *string
			if err := rows.Scan(&c.ID, &name); err != nil {
				return err
			}
			if name != nil {
				c.Name = *name
			}
			customers = append(customers, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, appErrors.NewStorageOperationFailed("list_customers", err)
	}
	return customers, nil
}

// Create inserts one customer; name is stored verbatim, empty included
func (r *CustomerRepository) Create(ctx context.Context, name string) (model.Customer, error) {
	c := model.Customer{Name: name}
	err := r.DB.Transaction(ctx, func(tx *db.Tx) error {
		return tx.QueryRow(`INSERT INTO customers (name) VALUES (?) RETURNING id`, name).Scan(&c.ID)
	})
	if err != nil {
		return model.Customer{}, appErrors.NewStorageOperationFailed("add_customer", err)
	}
	return c, nil
}

// CreateMany inserts names in order inside a single transaction; either all
// rows are added or none are.
func (r *CustomerRepository) CreateMany(ctx context.Context, names []string) ([]model.Customer, error) {
	created := make([]model.Customer, 0, len(names))
	err := r.DB.Transaction(ctx, func(tx *db.Tx) error {
		for _, name := range names {
			c := model.Customer{Name: name}
			if err := tx.QueryRow(`INSERT INTO customers (name) VALUES (?) RETURNING id`, name).Scan(&c.ID); err != nil {
				return err
			}
			created = append(created, c)
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.NewStorageOperationFailed("add_customers", err)
	}
	return created, nil
}

// Delete removes the customer with the given id. Unknown ids are not an error.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	err := r.DB.Transaction(ctx, func(tx *db.Tx) error {
		_, err := tx.Exec(`DELETE FROM customers WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return appErrors.NewStorageOperationFailed("delete_customer", err)
	}
	return nil
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
