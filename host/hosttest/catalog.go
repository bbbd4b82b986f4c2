package hosttest

import "go.ballast.dev/core/catalog"

// Catalog returns a small Catalog suitable for tests.
// "Component/Crate" is a discrete item of exactly one liter.
func Catalog() *catalog.Catalog {
	var cat, err = catalog.New([]catalog.Entry{
		{Type: "Ore/Iron", Volume: 0.37, Mass: 1, Quantization: catalog.Continuous, Stackable: true},
		{Type: "Ore/Ice", Volume: 0.37, Mass: 1, Quantization: catalog.Continuous, Stackable: true},
		{Type: "Ingot/Uranium", Volume: 0.052, Mass: 1, Quantization: catalog.Continuous, Stackable: true},
		{Type: "Component/Crate", Volume: 1, Mass: 1, Quantization: catalog.Discrete, Stackable: true},
		{Type: "Component/SteelPlate", Volume: 3, Mass: 20, Quantization: catalog.Discrete, Stackable: true},
		{Type: "AmmoMagazine/NATO_25x184mm", Volume: 16, Mass: 35, Quantization: catalog.Discrete, Stackable: true},
		{Type: "PhysicalGunObject/WelderItem", Volume: 8, Mass: 5, Quantization: catalog.Discrete, Stackable: false},
	})
	if err != nil {
		panic(err)
	}
	return cat
}
