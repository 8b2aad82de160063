package journey

// Modules is the ordered curriculum. A journey is complete once the module
// index reaches len(Modules).
var Modules = []string{
	"Module 1: The First Breath (Pranayama Basics)",
	"Module 2: Finding Your Center (Basic Meditation)",
	"Module 3: Mountain Pose (Tadasana)",
	"Module 4: The Forward Fold (Uttanasana)",
	"Module 5: Downward-Facing Dog (Adho Mukha Svanasana)",
	"Module 6: Warrior I (Virabhadrasana I)",
	"Module 7: Warrior II (Virabhadrasana II)",
	"Module 8: Triangle Pose (Trikonasana)",
	"Module 9: The Yamas: Ahimsa (Non-violence)",
	"Module 10: The Yamas: Satya (Truthfulness)",
	"Module 11: Sun Salutation A (Surya Namaskar A)",
	"Module 12: Cobra Pose (Bhujangasana)",
	"Module 13: Child's Pose (Balasana)",
	"Module 14: Cat-Cow Stretch (Marjaryasana-Bitilasana)",
	"Module 15: The Niyamas: Saucha (Cleanliness)",
	"Module 16: The Niyamas: Santosha (Contentment)",
	"Module 17: Tree Pose (Vrksasana)",
	"Module 18: Seated Forward Bend (Paschimottanasana)",
	"Module 19: Bridge Pose (Setu Bandhasana)",
	"Module 20: Corpse Pose (Savasana) & Integration",
	"Module 21: Sun Salutation B (Surya Namaskar B)",
	"Module 22: Chair Pose (Utkatasana)",
	"Module 23: The Three-Part Breath (Dirga Pranayama)",
	"Module 24: Anatomy of the Spine",
	"Module 25: Extended Side Angle Pose (Utthita Parsvakonasana)",
	"Module 26: The Yamas: Asteya (Non-stealing)",
	"Module 27: The Niyamas: Tapas (Discipline)",
	"Module 28: Dolphin Pose (Ardha Pincha Mayurasana)",
	"Module 29: Introduction to Bandhas (Mula & Uddiyana)",
	"Module 30: Crow Pose (Bakasana) - First Arm Balance",
	"Module 31: The Koshas (The Five Sheaths)",
	"Module 32: Eagle Pose (Garudasana)",
	"Module 33: Half Moon Pose (Ardha Chandrasana)",
	"Module 34: The Yamas: Brahmacharya (Moderation)",
	"Module 35: The Niyamas: Svadhyaya (Self-study)",
	"Module 36: Ujjayi Breath (Victorious Breath)",
	"Module 37: Anatomy of the Hips",
	"Module 38: Pigeon Pose (Eka Pada Rajakapotasana)",
	"Module 39: Camel Pose (Ustrasana)",
	"Module 40: The Chakras: Root (Muladhara)",
	"Module 41: The Chakras: Sacral (Svadhisthana)",
	"Module 42: The Chakras: Solar Plexus (Manipura)",
	"Module 43: Introduction to Vinyasa Flow",
	"Module 44: The Yamas: Aparigraha (Non-possessiveness)",
	"Module 45: The Niyamas: Ishvara Pranidhana (Surrender)",
	"Module 46: Shoulder Stand (Salamba Sarvangasana)",
	"Module 47: Plow Pose (Halasana)",
	"Module 48: Fish Pose (Matsyasana)",
	"Module 49: The Gunas (Sattva, Rajas, Tamas)",
	"Module 50: Guided Loving-Kindness Meditation",
	"Module 51: Headstand (Sirsasana) - Preparation",
	"Module 52: Headstand (Sirsasana) - Practice",
	"Module 53: The Art of Sequencing a Class",
	"Module 54: The Chakras: Heart (Anahata)",
	"Module 55: The Chakras: Throat (Vishuddha)",
	"Module 56: Wild Thing (Camatkarasana)",
	"Module 57: Handstand (Adho Mukha Vrksasana) - Preparation",
	"Module 58: Kapalabhati Pranayama (Breath of Fire)",
	"Module 59: Nadi Shodhana (Alternate Nostril Breathing)",
	"Module 60: The Yoga Sutras of Patanjali - Book 1",
	"Module 61: Side Crow (Parsva Bakasana)",
	"Module 62: Eight-Angle Pose (Astavakrasana)",
	"Module 63: The Chakras: Third Eye (Ajna)",
	"Module 64: The Chakras: Crown (Sahasrara)",
	"Module 65: Anatomy of the Shoulders & Wrists",
	"Module 66: Forearm Stand (Pincha Mayurasana)",
	"Module 67: Wheel Pose (Urdhva Dhanurasana)",
	"Module 68: The Yoga Sutras of Patanjali - Book 2",
	"Module 69: The Bhagavad Gita - Introduction",
	"Module 70: Karma Yoga (The Yoga of Action)",
	"Module 71: Bhakti Yoga (The Yoga of Devotion)",
	"Module 72: King Pigeon Pose (Eka Pada Rajakapotasana II)",
	"Module 73: Lotus Pose (Padmasana)",
	"Module 74: Kriya Yoga",
	"Module 75: Firefly Pose (Tittibhasana)",
	"Module 76: Jnana Yoga (The Yoga of Knowledge)",
	"Module 77: The Upanishads - Core Concepts",
	"Module 78: Introduction to Ayurveda",
	"Module 79: Doshas: Vata, Pitta, Kapha",
	"Module 80: Yoga for Your Dosha",
	"Module 81: Advanced Sequencing: Peak Pose",
	"Module 82: The Art of Hands-On Adjustments",
	"Module 83: Teaching Pranayama",
	"Module 84: Guiding Meditation",
	"Module 85: The Business of Yoga",
	"Module 86: Prenatal Yoga Modifications",
	"Module 87: Restorative Yoga Principles",
	"Module 88: Yoga Nidra",
	"Module 89: Advanced Arm Balances",
	"Module 90: Deeper Backbends",
	"Module 91: The Ethics of a Yoga Teacher",
	"Module 92: Trauma-Informed Yoga",
	"Module 93: Samadhi: The Goal of Yoga",
	"Module 94: Chanting and Mantras",
	"Module 95: Understanding Mudras",
	"Module 96: Creating Themed Workshops",
	"Module 97: Teaching to All Levels",
	"Module 98: Anatomy Review & Injury Prevention",
	"Module 99: Finding Your Voice as a Teacher",
	"Module 100: Graduation: The Lifelong Practice",
}

// ModuleCount is the number of modules in the curriculum.
var ModuleCount = len(Modules)

// JourneyCompleteName is shown once every module has been completed.
const JourneyCompleteName = "Journey Complete"

// ModuleName returns the title of module i, or JourneyCompleteName when i is
// past the end of the curriculum.
func ModuleName(i int) string {
	if i < 0 || i >= len(Modules) {
		return JourneyCompleteName
	}
	return Modules[i]
}

// Progress returns the percentage of modules completed, rounded to the
// nearest whole percent.
func Progress(moduleIndex int) int {
	if ModuleCount == 0 {
		return 0
	}
	if moduleIndex > ModuleCount {
		moduleIndex = ModuleCount
	}
	return (moduleIndex*100 + ModuleCount/2) / ModuleCount
}

type ModuleStatus string

const (
	ModuleCompleted ModuleStatus = "completed"
	ModuleCurrent   ModuleStatus = "current"
	ModuleLocked    ModuleStatus = "locked"
)

type ModuleInfo struct {
	Index  int          `json:"index"`
	Name   string       `json:"name"`
	Status ModuleStatus `json:"status"`
}

// Curriculum lists every module with its status relative to moduleIndex.
func Curriculum(moduleIndex int) []ModuleInfo {
	out := make([]ModuleInfo, len(Modules))
	for i, name := range Modules {
		status := ModuleLocked
		switch {
		case i < moduleIndex:
			status = ModuleCompleted
		case i == moduleIndex:
			status = ModuleCurrent
		}
		out[i] = ModuleInfo{Index: i, Name: name, Status: status}
	}
	return out
}
