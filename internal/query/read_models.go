package query

// Re-export read models from readmodel package so handlers only import query
import "github.com/example/ec-storefront/internal/readmodel"

type UserReadModel = readmodel.UserReadModel
type CartItemReadModel = readmodel.CartItemReadModel
type CartReadModel = readmodel.CartReadModel
type OrderItemReadModel = readmodel.OrderItemReadModel
type OrderReadModel = readmodel.OrderReadModel
