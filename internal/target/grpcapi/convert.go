package grpcapi

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"restaurant-loadgen/internal/restaurant"
)

func field(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("grpcapi: " + string(m.Descriptor().FullName()) + " has no field " + name)
	}
	return fd
}

func setString(m protoreflect.Message, name, v string) {
	m.Set(field(m, name), protoreflect.ValueOfString(v))
}

func setInt32(m protoreflect.Message, name string, v int32) {
	m.Set(field(m, name), protoreflect.ValueOfInt32(v))
}

func setInt64(m protoreflect.Message, name string, v int64) {
	m.Set(field(m, name), protoreflect.ValueOfInt64(v))
}

func getString(m protoreflect.Message, name string) string { return m.Get(field(m, name)).String() }
func getInt32(m protoreflect.Message, name string) int32   { return int32(m.Get(field(m, name)).Int()) }
func getInt64(m protoreflect.Message, name string) int64   { return m.Get(field(m, name)).Int() }

// child returns the sub-message, or nil when it is unset.
func child(m protoreflect.Message, name string) protoreflect.Message {
	fd := field(m, name)
	if !m.Has(fd) {
		return nil
	}
	return m.Get(fd).Message()
}

func putRestaurant(m protoreflect.Message, r *restaurant.Restaurant) {
	if r == nil {
		return
	}
	if r.ID != 0 {
		setInt64(m, "id", r.ID)
	}
	setString(m, "name", r.Name)
	if r.Address != nil {
		a := m.Mutable(field(m, "address")).Message()
		setString(a, "street", r.Address.Street)
		setString(a, "city", r.Address.City)
		setString(a, "state", r.Address.State)
		setString(a, "zip", r.Address.Zip)
	}
	if r.Menu != nil {
		putMenu(m.Mutable(field(m, "menu")).Message(), r.Menu)
	}
}

func putMenu(m protoreflect.Message, menu *restaurant.Menu) {
	if menu == nil {
		return
	}
	items := m.Mutable(field(m, "items")).List()
	for _, it := range menu.Items {
		e := items.NewElement()
		em := e.Message()
		setInt32(em, "id", it.ID)
		setString(em, "name", it.Name)
		setString(em, "price", it.Price)
		items.Append(e)
	}
}

func readRestaurant(m protoreflect.Message) *restaurant.Restaurant {
	if m == nil {
		return nil
	}
	r := &restaurant.Restaurant{
		ID:   getInt64(m, "id"),
		Name: getString(m, "name"),
	}
	if a := child(m, "address"); a != nil {
		r.Address = &restaurant.Address{
			Street: getString(a, "street"),
			City:   getString(a, "city"),
			State:  getString(a, "state"),
			Zip:    getString(a, "zip"),
		}
	}
	r.Menu = readMenu(child(m, "menu"))
	return r
}

func readMenu(m protoreflect.Message) *restaurant.Menu {
	if m == nil {
		return nil
	}
	items := m.Get(field(m, "items")).List()
	menu := &restaurant.Menu{Items: make([]restaurant.MenuItem, 0, items.Len())}
	for i := 0; i < items.Len(); i++ {
		it := items.Get(i).Message()
		menu.Items = append(menu.Items, restaurant.MenuItem{
			ID:    getInt32(it, "id"),
			Name:  getString(it, "name"),
			Price: getString(it, "price"),
		})
	}
	return menu
}
