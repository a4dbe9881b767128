package templaterender

import "haggle/internal/domain/negotiation"

// Bank holds the phrase lists for one role and personality. Placeholders:
// {name}, {product}, {market_price}, {offer}.
type Bank struct {
	Openers  []string `json:"openers,omitempty"`
	Counters []string `json:"counters,omitempty"`
	Accepts  []string `json:"accepts,omitempty"`
	Walks    []string `json:"walks,omitempty"`
}

// merge returns b with every non-empty list of o replacing its own.
func (b Bank) merge(o Bank) Bank {
	if len(o.Openers) > 0 {
		b.Openers = o.Openers
	}
	if len(o.Counters) > 0 {
		b.Counters = o.Counters
	}
	if len(o.Accepts) > 0 {
		b.Accepts = o.Accepts
	}
	if len(o.Walks) > 0 {
		b.Walks = o.Walks
	}
	return b
}

// Override is the JSON shape of a phrasebook override file.
type Override struct {
	Buyer  Bank `json:"buyer"`
	Seller Bank `json:"seller"`
}

var defaultBuyerBank = Bank{
	Openers: []string{
		"Hello! I'm interested in the {product}. I can offer {offer}.",
		"Hi, I've been looking for a {product}. Would you take {offer}?",
	},
	Counters: []string{
		"How about {offer}?",
		"I could stretch to {offer}.",
	},
	Accepts: []string{"{offer} works for me. Deal!", "Agreed at {offer}."},
	Walks:   []string{"I'll have to pass, thanks.", "That's beyond my budget."},
}

var defaultSellerBank = Bank{
	Counters: []string{
		"I can let it go for {offer}.",
		"My price is {offer}.",
	},
	Accepts: []string{"We have a deal at {offer}!"},
	Walks:   []string{"I can't go any lower. Good luck."},
}

var buyerBanks = map[negotiation.Personality]Bank{
	negotiation.PersonalityAggressive: {
		Openers: []string{
			"Let's not waste time. {offer} for the {product}, cash today.",
			"Skip the pitch. I'll pay {offer} for the {product}.",
		},
		Counters: []string{
			"Still too high. {offer}, and that's generous.",
			"You can't be serious. {offer}.",
		},
		Accepts: []string{"Fine. {offer}, done.", "Alright, {offer}. Deal."},
		Walks:   []string{"Forget it, I'm out.", "Not worth my time."},
	},
	negotiation.PersonalityDiplomatic: {
		Openers: []string{
			"Hi! I really like the {product} and hope we can find a fair price. Would {offer} work?",
			"Hello there, I've had my eye on the {product} for a while. I'd like to offer {offer}.",
		},
		Counters: []string{
			"I understand your position. Would you consider {offer}?",
			"I think we could both be happy at {offer}.",
		},
		Accepts: []string{"{offer} works for me. Deal!", "Perfect, let's do it at {offer}."},
		Walks:   []string{"I appreciate your time, but I'll have to pass.", "Maybe another time."},
	},
	negotiation.PersonalityAnalytical: {
		Openers: []string{
			"My market checks put the {product} around {market_price}. Given that, I'm offering {offer}.",
			"Recent sales of the {product} cluster near {market_price}. My opening figure is {offer}.",
		},
		Counters: []string{
			"By my numbers, {offer} is a fair midpoint.",
			"Given current demand, {offer} makes more sense.",
		},
		Accepts: []string{"The math checks out at {offer}. Deal.", "{offer} is inside my range. I'm in."},
		Walks:   []string{"The numbers don't fit, so I'll pass.", "That's outside my target range."},
	},
	negotiation.PersonalityWildcard: {
		Openers: []string{
			"The {product} would be the crown jewel of my collection. Let's start the story at {offer}.",
			"I dreamed about this {product} last night. It whispered {offer}.",
		},
		Counters: []string{
			"Meet me at {offer} and I'll throw in good vibes for free.",
			"{offer} feels like destiny.",
		},
		Accepts: []string{"That's poetic enough for me. {offer}, deal!", "We've painted the perfect picture at {offer}."},
		Walks:   []string{"The stars don't align today.", "I'm not feeling it anymore."},
	},
}

var sellerBanks = map[negotiation.Personality]Bank{
	negotiation.PersonalityAggressive: {
		Counters: []string{
			"Price is firm. {offer}, take it or leave it.",
			"Someone else will pay {offer}. Don't waste my time.",
		},
	},
	negotiation.PersonalityDiplomatic: {
		Counters: []string{
			"I understand, but how about {offer}?",
			"Let's try to meet halfway at {offer}.",
		},
	},
	negotiation.PersonalityAnalytical: {
		Counters: []string{
			"Market data says {offer} is already competitive.",
			"Based on supply and demand, I can do {offer}.",
		},
	},
	negotiation.PersonalityWildcard: {
		Counters: []string{
			"{offer}, and I'll wrap it in gold paper for you.",
			"{offer} feels like fate.",
		},
	},
}

func builtinBank(role negotiation.Role, p negotiation.Personality) Bank {
	if role == negotiation.RoleSeller {
		return defaultSellerBank.merge(sellerBanks[p])
	}
	return defaultBuyerBank.merge(buyerBanks[p])
}
