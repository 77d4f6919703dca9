package taxonomy

var flatCategories = []Category{
	{Name: "Sections", Sections: []string{"Characters", "Locations", "Plot", "Lore", "Timeline", "Media"}},
}

var categorizedCategories = []Category{
	{Name: "Characters", Sections: []string{
		"Protagonists", "Antagonists", "Supporting Characters", "Minor Characters",
		"Character Arcs", "Relationships", "Family Trees", "Backstories",
	}},
	{Name: "Locations", Sections: []string{
		"Continents", "Regions", "Cities", "Towns & Villages",
		"Landmarks", "Buildings", "Dungeons", "Wilderness",
	}},
	{Name: "Geography & Nature", Sections: []string{
		"Climate", "Terrain", "Oceans & Seas", "Rivers & Lakes",
		"Flora", "Fauna", "Natural Resources", "Maps",
	}},
	{Name: "History", Sections: []string{
		"Timeline", "Eras", "Historical Events", "Wars",
		"Legends", "Founding Myths", "Lost Civilizations", "Archives",
	}},
	{Name: "Lore", Sections: []string{
		"Myths", "Prophecies", "Folklore", "Secrets",
		"Artifacts", "Relics", "Codices", "Mysteries",
	}},
	{Name: "Magic & Powers", Sections: []string{
		"Magic Systems", "Spells", "Abilities", "Rituals",
		"Enchantments", "Curses", "Power Sources", "Limitations",
	}},
	{Name: "Technology", Sections: []string{
		"Inventions", "Weapons", "Vehicles", "Communication",
		"Medicine", "Infrastructure", "Computing", "Energy",
	}},
	{Name: "Societies & Cultures", Sections: []string{
		"Cultures", "Traditions", "Customs", "Languages",
		"Cuisine", "Fashion", "Arts", "Festivals",
	}},
	{Name: "Politics & Government", Sections: []string{
		"Nations", "Governments", "Laws", "Factions",
		"Diplomacy", "Rulers", "Political Parties", "Treaties",
	}},
	{Name: "Religion & Belief", Sections: []string{
		"Deities", "Pantheons", "Religions", "Cults",
		"Clergy", "Holy Sites", "Afterlife", "Philosophies",
	}},
	{Name: "Economy & Trade", Sections: []string{
		"Currencies", "Trade Routes", "Markets", "Guilds",
		"Industries", "Banking", "Taxation", "Merchants",
	}},
	{Name: "Military & Conflict", Sections: []string{
		"Armies", "Navies", "Battles", "Strategies",
		"Ranks", "Fortifications", "Mercenaries", "Military Orders",
	}},
	{Name: "Species & Creatures", Sections: []string{
		"Races", "Species", "Monsters", "Beasts",
		"Spirits", "Undead", "Hybrids", "Bestiary",
	}},
	{Name: "Organizations", Sections: []string{
		"Orders", "Secret Societies", "Companies", "Schools",
		"Criminal Syndicates", "Alliances", "Councils", "Brotherhoods",
	}},
	{Name: "Plot & Story", Sections: []string{
		"Main Plot", "Subplots", "Story Arcs", "Chapters",
		"Scenes", "Conflicts", "Themes", "Plot Twists",
	}},
	{Name: "Items & Equipment", Sections: []string{
		"Armor", "Tools", "Treasures", "Consumables",
		"Clothing", "Jewelry", "Legendary Items", "Inventories",
	}},
	{Name: "Media & Assets", Sections: []string{
		"Concept Art", "Illustrations", "Soundtracks", "Mood Boards",
		"References", "Scripts", "Storyboards", "Trailers",
	}},
	{Name: "Production & Notes", Sections: []string{
		"Ideas", "Drafts", "Research", "To-Do",
		"Style Guides", "Glossary", "Continuity Notes", "Pitch Documents",
	}},
}
