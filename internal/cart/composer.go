package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/internal/catalog"
)

// Ticket labels for composed menus. French on purpose: they are printed
// verbatim on kitchen tickets and receipts.
const (
	NoSauceLabel = "Sans Sauce"
	FriesLabel   = "Frites"
	CheddarLabel = "Cheddar"
)

var (
	// ErrWizardStep is returned when a selection arrives out of order.
	ErrWizardStep = errors.New("menu selection out of order")
	// ErrIncompleteMenu is returned when confirming before every
	// component is chosen.
	ErrIncompleteMenu = errors.New("menu is missing a component")
)

// SauceChoice distinguishes "no sauce" from "not yet chosen". A zero
// SauceChoice is neither; wizards track un-chosen as a nil pointer.
type SauceChoice struct {
	none    bool
	product catalog.Product
}

func SauceOf(p catalog.Product) SauceChoice {
	return SauceChoice{product: p}
}

func NoSauce() SauceChoice {
	return SauceChoice{none: true}
}

// Label is the ticket text for the sauce slot.
func (s SauceChoice) Label() string {
	if s.none {
		return NoSauceLabel
	}
	return s.product.Name
}

func (s SauceChoice) productID() int64 {
	if s.none {
		return 0
	}
	return s.product.ID
}

// SoloItem prices a plain product at its base price, with no surcharge.
// Used for non-bundle products and for "add the burger alone".
func SoloItem(p catalog.Product, notes string) LineItem {
	return LineItem{
		ID:        SimpleItemID(p.ID, notes),
		Kind:      KindSimple,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
		Notes:     notes,
		ProductID: p.ID,
	}
}

// RewardItem builds a loyalty-redemption line: the product is free and
// the tier's point price is captured now, to be deducted at checkout.
func RewardItem(p catalog.Product, pointsCost int) LineItem {
	return LineItem{
		ID:         rewardItemID(p.ID),
		Kind:       KindSimple,
		Name:       p.Name,
		UnitPrice:  decimal.Zero,
		Quantity:   1,
		ProductID:  p.ID,
		PointsCost: pointsCost,
	}
}

// MenuStep names the burger wizard's position. Steps are strictly
// ordered; skipping ahead is rejected.
type MenuStep string

const (
	StepOptions MenuStep = "options"
	StepSide    MenuStep = "side"
	StepSauce   MenuStep = "sauce"
	StepDrink   MenuStep = "drink"
	StepConfirm MenuStep = "confirm"
)

// MenuWizard walks the burger-menu composition: solo-or-bundle, then
// side, sauce (with an explicit no-sauce option), drink, confirm. The
// bundle price is the burger's base price plus a fixed surcharge,
// independent of which components are chosen.
type MenuWizard struct {
	burger    catalog.Product
	surcharge decimal.Decimal

	step  MenuStep
	side  *catalog.Product
	sauce *SauceChoice
	drink *catalog.Product
	notes string
}

func NewMenuWizard(burger catalog.Product, surcharge decimal.Decimal) *MenuWizard {
	return &MenuWizard{burger: burger, surcharge: surcharge, step: StepOptions}
}

func (w *MenuWizard) Step() MenuStep { return w.step }

// Solo ends the wizard with the burger alone at its base price.
func (w *MenuWizard) Solo() LineItem {
	item := SoloItem(w.burger, w.notes)
	w.Cancel()
	return item
}

// StartBundle moves from the solo-or-bundle choice into the side step.
func (w *MenuWizard) StartBundle() error {
	if w.step != StepOptions {
		return ErrWizardStep
	}
	w.step = StepSide
	return nil
}

func (w *MenuWizard) ChooseSide(p catalog.Product) error {
	if w.step != StepSide {
		return ErrWizardStep
	}
	w.side = &p
	w.step = StepSauce
	return nil
}

func (w *MenuWizard) ChooseSauce(c SauceChoice) error {
	if w.step != StepSauce {
		return ErrWizardStep
	}
	w.sauce = &c
	w.step = StepDrink
	return nil
}

func (w *MenuWizard) ChooseDrink(p catalog.Product) error {
	if w.step != StepDrink {
		return ErrWizardStep
	}
	w.drink = &p
	w.step = StepConfirm
	return nil
}

func (w *MenuWizard) SetNotes(notes string) {
	w.notes = notes
}

// Confirm builds the composed bundle line. The component list is
// exactly [burger, side, sauce-or-"Sans Sauce", drink], in ticket order.
func (w *MenuWizard) Confirm() (LineItem, error) {
	if w.step != StepConfirm || w.side == nil || w.sauce == nil || w.drink == nil {
		return LineItem{}, ErrIncompleteMenu
	}

	item := LineItem{
		ID:        menuItemID(w.burger.ID, w.side.ID, w.sauce.productID(), w.drink.ID),
		Kind:      KindBundle,
		Name:      "Menu " + w.burger.Name,
		UnitPrice: w.burger.Price.Add(w.surcharge),
		Quantity:  1,
		Components: []string{
			w.burger.Name,
			w.side.Name,
			w.sauce.Label(),
			w.drink.Name,
		},
		Notes:     w.notes,
		ProductID: w.burger.ID,
	}
	w.Cancel()
	return item, nil
}

// Cancel resets every selection and returns to the first step.
func (w *MenuWizard) Cancel() {
	w.step = StepOptions
	w.side = nil
	w.sauce = nil
	w.drink = nil
	w.notes = ""
}

// KidsChoice is the main-item pick of the children's menu.
type KidsChoice string

const (
	KidsBurger KidsChoice = "burger"
	KidsChunks KidsChoice = "chunks"
)

type KidsStep string

const (
	KidsStepChoice  KidsStep = "choice"
	KidsStepSauce   KidsStep = "sauce"
	KidsStepCheddar KidsStep = "cheddar"
	KidsStepNotes   KidsStep = "notes"
)

// KidsWizard walks the children's menu: burger-or-chunks, sauce, an
// optional cheddar step on the burger path, then free-text notes. The
// price is the child-menu product's flat price, no surcharge.
type KidsWizard struct {
	product catalog.Product

	step    KidsStep
	choice  KidsChoice
	sauce   string
	cheddar bool
	notes   string
}

func NewKidsWizard(product catalog.Product) *KidsWizard {
	return &KidsWizard{product: product, step: KidsStepChoice}
}

func (w *KidsWizard) Step() KidsStep { return w.step }

func (w *KidsWizard) Choose(choice KidsChoice) error {
	if w.step != KidsStepChoice {
		return ErrWizardStep
	}
	if choice != KidsBurger && choice != KidsChunks {
		return ErrWizardStep
	}
	w.choice = choice
	w.step = KidsStepSauce
	return nil
}

func (w *KidsWizard) ChooseSauce(sauce string) error {
	if w.step != KidsStepSauce {
		return ErrWizardStep
	}
	w.sauce = sauce
	if w.choice == KidsBurger {
		w.step = KidsStepCheddar
	} else {
		w.step = KidsStepNotes
	}
	return nil
}

func (w *KidsWizard) ChooseCheddar(cheddar bool) error {
	if w.step != KidsStepCheddar {
		return ErrWizardStep
	}
	w.cheddar = cheddar
	w.step = KidsStepNotes
	return nil
}

func (w *KidsWizard) SetNotes(notes string) error {
	if w.step != KidsStepNotes {
		return ErrWizardStep
	}
	w.notes = notes
	return nil
}

func (w *KidsWizard) Confirm() (LineItem, error) {
	if w.step != KidsStepNotes {
		return LineItem{}, ErrIncompleteMenu
	}

	choiceLabel := strings.ToUpper(string(w.choice)[:1]) + string(w.choice)[1:]
	components := []string{choiceLabel, FriesLabel, w.sauce}
	if w.choice == KidsBurger && w.cheddar {
		components = append(components, CheddarLabel)
	}

	item := LineItem{
		ID:         kidsMenuItemID(w.product.ID),
		Kind:       KindBundle,
		Name:       w.product.Name + " (" + choiceLabel + ")",
		UnitPrice:  w.product.Price,
		Quantity:   1,
		Components: components,
		Notes:      w.notes,
		ProductID:  w.product.ID,
	}
	w.Cancel()
	return item, nil
}

func (w *KidsWizard) Cancel() {
	w.step = KidsStepChoice
	w.choice = ""
	w.sauce = ""
	w.cheddar = false
	w.notes = ""
}
