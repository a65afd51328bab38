package domain

import "time"

// Tag is a search category shown as a chip in the map UI. Default tags map
// to a structured place type; custom tags carry no type and are searched
// as free text.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PlaceType string    `json:"place_type,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	IsCustom  bool      `json:"is_custom"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultTags is the built-in tag set. Keyword hints narrow category
// searches where the bare type matches too loosely.
var DefaultTags = []Tag{
	{ID: "restaurant", Name: "レストラン", PlaceType: "restaurant"},
	{ID: "cafe", Name: "カフェ", PlaceType: "cafe"},
	{ID: "convenience_store", Name: "コンビニ", PlaceType: "convenience_store", Keyword: "コンビニ"},
	{ID: "gas_station", Name: "ガソリンスタンド", PlaceType: "gas_station", Keyword: "ガソリンスタンド"},
	{ID: "parking", Name: "駐車場", PlaceType: "parking"},
	{ID: "pharmacy", Name: "薬局", PlaceType: "pharmacy", Keyword: "薬局 ドラッグストア"},
	{ID: "atm", Name: "ATM", PlaceType: "atm"},
	{ID: "hospital", Name: "病院", PlaceType: "hospital", Keyword: "病院 クリニック"},
	{ID: "train_station", Name: "駅", PlaceType: "train_station", Keyword: "駅"},
}
