package notify

import (
	"fmt"
	"strings"

	"bidhouse/auction"
)

// Render 產生事件的郵件主旨與內容
// baseURL 用於建立拍賣的連結，結尾的斜線會被忽略
func Render(event auction.Event, baseURL string) (subject, body string) {
	switch event.Kind {
	case auction.EventBidRegistered:
		return "Bid registered",
			fmt.Sprintf("A new bid has been registered for auction %s.", event.AuctionTitle)
	case auction.EventAuctionResolved:
		if event.Winner == "" {
			return "Auction resolved",
				fmt.Sprintf("Auction %s has been resolved. There were no bids.", event.AuctionTitle)
		}
		return "Auction resolved",
			fmt.Sprintf("Auction %s has been resolved. The winner is %s.", event.AuctionTitle, event.Winner)
	case auction.EventAuctionBanned:
		return "Auction banned",
			fmt.Sprintf("Auction %s has been banned.", event.AuctionTitle)
	case auction.EventAuctionCreated:
		return "Auction created",
			fmt.Sprintf("Your auction was successfully created. Link to auction details: %s/auctions/%s",
				strings.TrimRight(baseURL, "/"), event.AuctionID)
	default:
		return string(event.Kind), fmt.Sprintf("Auction %s has been updated.", event.AuctionTitle)
	}
}
