package grpcapi

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/types/dynamicpb"

	"restaurant-loadgen/internal/restaurant"
	"restaurant-loadgen/internal/target"
)

// Client implements target.Target on top of a Pool.
type Client struct {
	schema *Schema
	pool   *Pool
}

var (
	_ target.Target    = (*Client)(nil)
	_ target.Inspector = (*Client)(nil)
)

func NewClient(schema *Schema, pool *Pool) *Client {
	return &Client{schema: schema, pool: pool}
}

type messageArgs struct {
	in, out *dynamicpb.Message
}

func (c *Client) invoke(ctx context.Context, op, method string, fill func(in *messageArgs) error) (*messageArgs, error) {
	conn, err := c.pool.Conn()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	args := &messageArgs{in: c.schema.NewInput(method), out: c.schema.NewOutput(method)}
	if err := fill(args); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := conn.Invoke(ctx, c.schema.FullMethod(method), args.in, args.out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return args, nil
}

// CreateRestaurant returns an empty ID when the server answers with a zero
// restaurant_id, which proto3 cannot tell apart from "unset".
func (c *Client) CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) (restaurant.ID, error) {
	args, err := c.invoke(ctx, target.OpCreate, MethodCreateRestaurant, func(a *messageArgs) error {
		putRestaurant(a.in.Mutable(field(a.in, "restaurant")).Message(), r)
		return nil
	})
	if err != nil {
		return "", err
	}
	id := getInt64(args.out, "restaurant_id")
	if id == 0 {
		return "", nil
	}
	return restaurant.ID(strconv.FormatInt(id, 10)), nil
}

func (c *Client) UpdateMenu(ctx context.Context, id restaurant.ID, m *restaurant.Menu) error {
	_, err := c.invoke(ctx, target.OpUpdate, MethodUpdateMenu, func(a *messageArgs) error {
		n, err := id.Int64()
		if err != nil {
			return err
		}
		setInt64(a.in, "restaurant_id", n)
		putMenu(a.in.Mutable(field(a.in, "menu")).Message(), m)
		return nil
	})
	return err
}

func (c *Client) DeleteRestaurant(ctx context.Context, id restaurant.ID) error {
	_, err := c.invoke(ctx, target.OpDelete, MethodDeleteRestaurant, func(a *messageArgs) error {
		n, err := id.Int64()
		if err != nil {
			return err
		}
		setInt64(a.in, "restaurant_id", n)
		return nil
	})
	return err
}

// GetRestaurant reads a restaurant back through GetRestaurantById.
func (c *Client) GetRestaurant(ctx context.Context, id restaurant.ID) (*restaurant.Restaurant, error) {
	args, err := c.invoke(ctx, target.OpGet, MethodGetRestaurantByID, func(a *messageArgs) error {
		n, err := id.Int64()
		if err != nil {
			return err
		}
		setInt64(a.in, "restaurant_id", n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return readRestaurant(child(args.out, "restaurant")), nil
}
