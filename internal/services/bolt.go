package services

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
	bolt "go.etcd.io/bbolt"
)

// BoltOrders implements the OrderStore interface on a BoltDB file. Every user has a bucket of orders keyed
// by order id, seeded with the fixture orders the first time the user is seen, so cancellations made in a
// demo survive restarts.
type BoltOrders struct {
	db *bolt.DB
}

// NewBoltOrders opens, or creates with 0600 permissions, the BoltDB file at path.
func NewBoltOrders(path string) (BoltOrders, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltOrders{}, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return BoltOrders{db: db}, nil
}

// Close releases the database file.
func (b BoltOrders) Close() error {
	return b.db.Close()
}

func ordersBucketName(email string) []byte {
	return []byte(fmt.Sprintf("orders-%s", email))
}

func orderKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

func putOrder(bucket *bolt.Bucket, order models.Order) error {
	v, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	return bucket.Put(orderKey(order.ID), v)
}

// seed creates the user's bucket with the fixture orders if it does not exist yet.
func (b BoltOrders) seed(email string) error {
	name := ordersBucketName(email)

	var exists bool
	if err := b.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(name) != nil
		return nil
	}); err != nil {
		return err
	}
	if exists {
		return nil
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(name) != nil {
			return nil
		}
		bucket, err := tx.CreateBucket(name)
		if err != nil {
			return fmt.Errorf("failed to create orders bucket: %w", err)
		}
		for _, order := range FixtureOrders() {
			if err := putOrder(bucket, order); err != nil {
				return err
			}
		}
		return nil
	})
}

// Orders retrieves the orders of the user in ascending id order.
func (b BoltOrders) Orders(_ context.Context, email string) ([]models.Order, error) {
	if err := b.seed(email); err != nil {
		return nil, err
	}

	var orders []models.Order
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(ordersBucketName(email))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(_, v []byte) error {
			var order models.Order
			if err := json.Unmarshal(v, &order); err != nil {
				return fmt.Errorf("failed to unmarshal order: %w", err)
			}
			orders = append(orders, order)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Order retrieves a single order of the user.
func (b BoltOrders) Order(_ context.Context, email string, id int64) (models.Order, error) {
	if err := b.seed(email); err != nil {
		return models.Order{}, err
	}

	var order models.Order
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		order, err = getOrder(tx, email, id)
		return err
	})
	return order, err
}

// CancelOrder cancels an order of the user inside a single transaction. Orders that cannot be cancelled
// are left untouched and models.ErrInvalidTransition is returned.
func (b BoltOrders) CancelOrder(_ context.Context, email string, id int64) (models.Order, error) {
	if err := b.seed(email); err != nil {
		return models.Order{}, err
	}

	var order models.Order
	err := b.db.Update(func(tx *bolt.Tx) error {
		current, err := getOrder(tx, email, id)
		if err != nil {
			return err
		}
		order = current

		cancelled, err := current.Cancel()
		if err != nil {
			return err
		}
		if err := putOrder(tx.Bucket(ordersBucketName(email)), cancelled); err != nil {
			return err
		}
		order = cancelled
		return nil
	})
	return order, err
}

func getOrder(tx *bolt.Tx, email string, id int64) (models.Order, error) {
	bucket := tx.Bucket(ordersBucketName(email))
	if bucket == nil {
		return models.Order{}, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}
	v := bucket.Get(orderKey(id))
	if v == nil {
		return models.Order{}, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}

	var order models.Order
	if err := json.Unmarshal(v, &order); err != nil {
		return models.Order{}, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return order, nil
}
