package cache

import "fmt"

const ActiveOfferKey = "promotion:active_offer"

func ProductKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}
