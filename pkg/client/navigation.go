package client

import "github.com/utsav306/farmconnect-sub000/internal/models"

// Tab is one entry of the app's bottom navigation.
type Tab string

const (
	TabHome         Tab = "home"
	TabMarketplace  Tab = "marketplace"
	TabCart         Tab = "cart"
	TabOrders       Tab = "orders"
	TabDashboard    Tab = "dashboard"
	TabMyProducts   Tab = "my-products"
	TabFarmerOrders Tab = "farmer-orders"
	TabAssistant    Tab = "assistant"
	TabModeration   Tab = "moderation"
	TabUsers        Tab = "users"
	TabMessages     Tab = "messages"
	TabProfile      Tab = "profile"
)

// tabOrder is the display order of every tab.
var tabOrder = []Tab{
	TabHome, TabMarketplace, TabCart, TabOrders,
	TabDashboard, TabMyProducts, TabFarmerOrders, TabAssistant,
	TabModeration, TabUsers,
	TabMessages, TabProfile,
}

var navigation = map[models.Role][]Tab{
	models.RoleUser:      {TabHome, TabMarketplace, TabCart, TabOrders, TabMessages, TabProfile},
	models.RoleFarmer:    {TabHome, TabDashboard, TabMyProducts, TabFarmerOrders, TabAssistant, TabMessages, TabProfile},
	models.RoleModerator: {TabHome, TabModeration, TabMessages, TabProfile},
	models.RoleAdmin:     {TabHome, TabUsers, TabModeration, TabDashboard, TabMessages, TabProfile},
}

// NavigationFor returns the tabs a user with roles sees: the union of each
// role's tabs, without duplicates, in display order.
func NavigationFor(roles models.Roles) []Tab {
	enabled := make(map[Tab]bool)
	for _, r := range roles {
		for _, tab := range navigation[r] {
			enabled[tab] = true
		}
	}

	tabs := make([]Tab, 0, len(enabled))
	for _, tab := range tabOrder {
		if enabled[tab] {
			tabs = append(tabs, tab)
		}
	}
	return tabs
}
