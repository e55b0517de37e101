// Package decoy generates plausible fake credentials for the duress view.
//
// The catalog is a fixed set of realistic-looking accounts. Selection order
// is randomized per call so repeated duress sessions do not show an obviously
// static list.
package decoy

import (
	"fmt"
	"math/rand/v2"
)

// DefaultCount is the number of decoy credentials shown by default.
const DefaultCount = 31

// Credential is a single fake account record.
type Credential struct {
	Service  string
	Login    string
	Password string
	Note     string
}

var catalog = []Credential{
	{"Google", "michael.j.rivers87@gmail.com", "SunnyHills2023!", "Main email"},
	{"Gmail", "sarah.mitchell.home@gmail.com", "Butterfly$Dream9", "Personal account"},
	{"Facebook", "mike.rivers.1987", "FbSecure#2022", ""},
	{"Instagram", "sarahm_photos", "InstaLife!44", "Photo account"},
	{"Twitter", "mrivers_tech", "TweetStorm_21", ""},
	{"LinkedIn", "michael-rivers-dev", "CareerPath2023$", "Work profile"},
	{"Amazon", "michael.j.rivers87@gmail.com", "Prime&Deliver55", "Shopping"},
	{"Netflix", "riversfamily2020@gmail.com", "MovieNight!78", "Family plan"},
	{"Spotify", "mike.rivers.music", "PlaylistKing#3", ""},
	{"YouTube", "michael.j.rivers87@gmail.com", "SunnyHills2023!", "Same as Google"},
	{"PayPal", "michael.j.rivers87@gmail.com", "SafeMoney$2021", "Linked to checking"},
	{"eBay", "mrivers_collects", "BidWinner!90", ""},
	{"Apple ID", "sarah.mitchell.home@icloud.com", "AppleTree&Fall7", "iPhone backup"},
	{"Microsoft", "m.rivers.work@outlook.com", "WindowsHome#11", "Office license"},
	{"Dropbox", "michael.j.rivers87@gmail.com", "CloudBox_2019", "Documents"},
	{"GitHub", "mrivers-codes", "CommitDaily!42", "Side projects"},
	{"Steam", "RiverRaider87", "GameOn&Win33", ""},
	{"Discord", "mikeriv#4521", "ChatServer!19", ""},
	{"Reddit", "throwaway_mr87", "UpvoteMe$567", ""},
	{"Twitch", "rivers_streams", "StreamTime#88", ""},
	{"Zoom", "m.rivers.work@outlook.com", "MeetingRoom!5", "Work calls"},
	{"Slack", "m.rivers.work@outlook.com", "WorkChat&2022", "Team workspace"},
	{"Bank of America", "mrivers1987", "Checking$afe123", "Primary checking"},
	{"Chase", "michaelrivers87", "CreditCard!777", "Credit card"},
	{"Wells Fargo", "sarahmitchell22", "Savings&Grow44", "Joint savings"},
	{"Venmo", "mike-rivers-87", "QuickPay$now8", ""},
	{"Coinbase", "michael.j.rivers87@gmail.com", "CryptoHodl!2021", "Small portfolio"},
	{"Robinhood", "mrivers.invest", "StockPick#101", ""},
	{"Airbnb", "michael.j.rivers87@gmail.com", "TravelHome&22", "Vacation bookings"},
	{"Booking.com", "sarah.mitchell.home@gmail.com", "HotelStay!63", ""},
	{"Uber", "michael.j.rivers87@gmail.com", "RideShare$14", ""},
	{"Lyft", "sarah.mitchell.home@gmail.com", "PinkCar&Go29", ""},
	{"DoorDash", "riversfamily2020@gmail.com", "FoodFast!31", "Friday orders"},
	{"Instacart", "sarah.mitchell.home@gmail.com", "Groceries#2023", "Weekly groceries"},
	{"Walmart", "riversfamily2020@gmail.com", "SaveMoney$18", ""},
	{"Target", "sarah.mitchell.home@gmail.com", "RedCard&Shop6", ""},
	{"Best Buy", "michael.j.rivers87@gmail.com", "TechDeals!25", "Geek Squad plan"},
	{"Home Depot", "mrivers1987", "FixItUp#49", "Garage projects"},
	{"Costco", "riversfamily2020@gmail.com", "BulkBuy$365", "Membership 111822"},
	{"CVS Pharmacy", "sarah.mitchell.home@gmail.com", "HealthFirst!12", "Prescriptions"},
	{"Verizon", "mrivers1987", "PhoneBill&Pay3", "Family plan"},
	{"Comcast", "riversfamily2020@gmail.com", "FastNet#2020", "Home internet"},
	{"Hulu", "riversfamily2020@gmail.com", "ShowBinge!52", ""},
	{"Disney+", "riversfamily2020@gmail.com", "MagicKingdom&9", "Kids profiles"},
	{"HBO Max", "michael.j.rivers87@gmail.com", "SeriesNight!40", ""},
	{"Audible", "sarah.mitchell.home@gmail.com", "BookListen#77", "2 credits left"},
	{"Kindle", "sarah.mitchell.home@gmail.com", "ReadMore$2021", ""},
	{"Fitbit", "mike.rivers.fit", "StepCount!10k", ""},
	{"MyFitnessPal", "sarahm_fit", "CalorieLog&33", ""},
	{"Expedia", "michael.j.rivers87@gmail.com", "FlyAway!2022", "Miles account"},
	{"Delta Airlines", "mrivers1987", "SkyMiles#9876", "Frequent flyer"},
	{"Marriott", "michael.j.rivers87@gmail.com", "HotelPoints$55", "Bonvoy member"},
}

// Generate returns count decoy credentials drawn from the catalog in random
// order. When count exceeds the catalog size, the remainder is filled with
// generic entries.
func Generate(count int) []Credential {
	if count <= 0 {
		return nil
	}

	picks := make([]Credential, len(catalog))
	copy(picks, catalog)
	rand.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})

	if count <= len(picks) {
		return picks[:count]
	}

	out := picks
	for i := len(picks); i < count; i++ {
		out = append(out, generic(i+1))
	}
	return out
}

// Generic returns count synthetic entries with no recognizable services.
func Generic(count int) []Credential {
	if count <= 0 {
		return nil
	}
	out := make([]Credential, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, generic(i))
	}
	return out
}

func generic(n int) Credential {
	return Credential{
		Service:  fmt.Sprintf("Service %d", n),
		Login:    fmt.Sprintf("user%d@example.com", n),
		Password: fmt.Sprintf("Password%d!", n),
	}
}
