package restaurant

// Default returns the restaurant created on every iteration. A new value is
// built on each call so callers may not share or mutate it by accident.
func Default() *Restaurant {
	return &Restaurant{
		Name: "Los Baltazares",
		Address: &Address{
			Street: "Avenida de los pinos de Montequinto",
			City:   "Dos Hermanas",
			State:  "Sevilla",
			Zip:    "41089",
		},
		Menu: &Menu{Items: []MenuItem{
			{ID: 1, Name: "Tapa de adobo", Price: "13.14"},
			{ID: 2, Name: "Tapa de patatas", Price: "3.14"},
		}},
	}
}

// ReplacementMenu returns the menu sent by the update step.
func ReplacementMenu() *Menu {
	return &Menu{Items: []MenuItem{
		{ID: 1, Name: "Tapa de gambas", Price: "3.95"},
		{ID: 2, Name: "Tapa de calamares", Price: "6.99"},
		{ID: 3, Name: "Tapa de acelgas", Price: "2.99"},
	}}
}
