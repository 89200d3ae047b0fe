package a

// @title Not here // want `@title ignored: only operation blocks and the general info file carry directives`
type Config struct{}

// @Summary Get pet
// @Param id path int true "Pet ID"
// @Success 200 {string} string "ok"
// @Router /pets/{id} [get]
func GetPet() {}

// @Summary Get pet again
// @Param id path int true "Pet ID"
// @Success 200 {string} string "ok"
// @Router /pets/{id} [get]
func GetPetAgain() {} // want `duplicate operation GET /pets/\{id\}, first declared by GetPet at`

// @Summary Owner
// @Param name path string true "Name"
// @Success 200 {string} string "ok"
// @Router /owners/{id} [get]
func GetOwner() {} // want `path parameter name has no \{name\} placeholder in route /owners/\{id\}` `route placeholder \{id\} has no path @Param`

// @Summary Odd
// @Shiny yes // want `unknown directive @Shiny`
// @Success 200 {string} string "ok"
// @Router /odd [get]
func Odd() {}

// Helper has no directives.
func Helper() {}
