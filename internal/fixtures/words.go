package fixtures

// loremWords is the placeholder vocabulary name-like fields are drawn from.
var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit",
	"curabitur", "vel", "hendrerit", "libero", "eleifend", "blandit", "nunc", "ornare",
	"odio", "ut", "orci", "gravida", "imperdiet", "nullam", "purus", "lacinia",
	"a", "pretium", "quis", "congue", "praesent", "sagittis", "laoreet", "auctor",
	"mauris", "non", "velit", "eros", "dictum", "proin", "accumsan", "sapien",
	"nec", "massa", "volutpat", "venenatis", "sed", "eu", "molestie", "lacus",
	"quisque", "porttitor", "ligula", "dui", "mollis", "tempus", "at", "magna",
	"vestibulum", "turpis", "ac", "diam", "tincidunt", "id", "condimentum", "enim",
	"sodales", "in", "hac", "habitasse", "platea", "dictumst", "aenean", "neque",
	"fusce", "augue", "leo", "eget", "semper", "mattis", "tortor", "scelerisque",
	"nulla", "interdum", "tellus", "malesuada", "rhoncus", "porta", "sem", "aliquet",
	"et", "nam", "suspendisse", "potenti", "vivamus", "luctus", "fringilla", "erat",
	"donec", "justo", "vehicula", "ultricies", "varius", "ante", "primis", "faucibus",
	"ultrices", "posuere", "cubilia", "curae", "etiam", "cursus", "aliquam", "quam",
	"dapibus", "nisl", "feugiat", "egestas", "class", "aptent", "taciti", "sociosqu",
	"ad", "litora", "torquent", "per", "conubia", "nostra", "inceptos", "himenaeos",
	"phasellus", "nibh", "pulvinar", "vitae", "urna", "iaculis", "lobortis", "nisi",
	"viverra", "arcu", "morbi", "pellentesque", "metus", "commodo", "facilisis", "felis",
	"tristique", "ullamcorper", "placerat", "convallis", "sollicitudin", "integer", "rutrum", "duis",
	"est", "bibendum", "pharetra", "vulputate", "maecenas", "mi", "fermentum", "consequat",
	"suscipit", "habitant", "senectus", "netus", "fames", "euismod", "lectus", "elementum",
	"tempor", "risus", "cras",
}

// Vocabulary is the realistic catalog used by seeding and search load probes.
var Vocabulary = struct {
	MakeNames    []string
	ModelNames   []string
	Years        []int
	TrimNames    []string
	PackageNames []string
	ModelCodes   []string
	PackageCodes []string
	APXCodes     []string
}{
	MakeNames:    []string{"Toyota", "Scion", "Ford", "Kia", "Subaru", "GMC", "Hyundai", "Mitsubishi", "BMW", "Dodge"},
	ModelNames:   []string{"Lancer", "Dart", "Fusion", "Sunflower", "F150", "FRS", "Sportage", "Tuscon", "M3", "BRZ", "Forester", "Focus", "Challenger", "Impreza", "WRX"},
	Years:        []int{2014, 2015, 2016, 2017},
	TrimNames:    []string{"Technology", "Standard", "AWD", "Extended", "Race", "Base"},
	PackageNames: []string{"A", "B", "Tech", "C", "Limited"},
	ModelCodes:   []string{"AAABBC", "BBBCCD", "CCCDDF", "TT234S", "543SR", "33SD"},
	PackageCodes: []string{"1", "2", "3", "4"},
	APXCodes:     []string{"00", "01", "02", "11", "54"},
}
