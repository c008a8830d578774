package model

// MotivationalQuotes rotate hourly in the header.
var MotivationalQuotes = []string{
	"We suffer more in imagination than in reality. — Seneca",
	"The impediment to action advances action. What stands in the way becomes the way. — Marcus Aurelius",
	"First say to yourself what you would be; then do what you have to do. — Epictetus",
	"It is not that we have a short time to live, but that we waste a lot of it. — Seneca",
	"Begin at once to live, and count each day as a separate life. — Seneca",
	"Difficulties strengthen the mind, as labor does the body. — Seneca",
	"Make the best use of what is in your power, and take the rest as it happens. — Epictetus",
	"The secret of getting ahead is getting started. — Mark Twain",
	"Action is the foundational key to all success. — Pablo Picasso",
	"Done is better than perfect. — Sheryl Sandberg",
	"Small daily improvements are the key to staggering long-term results. — Robin Sharma",
	"Focus on being productive instead of busy. — Tim Ferriss",
	"You can do anything, but not everything. — David Allen",
	"Start where you are. Use what you have. Do what you can. — Arthur Ashe",
	"Your mind is for having ideas, not holding them. — David Allen",
	"Either you run the day, or the day runs you. — Jim Rohn",
	"I love deadlines. I love the whooshing noise they make as they go by. — Douglas Adams",
	"I'm not procrastinating. I'm doing side quests. — Unknown",
	"The road to success is always under construction. — Lily Tomlin",
	"Success is going from failure to failure without losing your enthusiasm. — Winston Churchill",
}

// VictoryQuotes are shown when a list is fully completed.
var VictoryQuotes = []string{
	"Well done is better than well said. And you've done it! — Benjamin Franklin",
	"The discipline of finishing is the discipline of freedom. You're free! — Robin Sharma",
	"Success is the sum of small efforts, repeated. Today you proved it. — Robert Collier",
	"You didn't come this far to only come this far. Rest up, champion.",
	"Plot twist: You actually finished everything. The simulation is glitching.",
	"Productivity: 100%. Excuses: 0%. Legend status: Confirmed.",
	"Somewhere, a procrastinator just felt a disturbance in the force.",
}

// SuggestionSetSize is how many rotated quick-add suggestions are shown at once.
const SuggestionSetSize = 4

// CommonSuggestions are used when rotation is turned off.
var CommonSuggestions = []string{
	"📧 Go through my emails",
	"💪 Squeeze in a workout",
	"📞 Give mom a call",
	"🛒 Pick up some groceries",
}

var QuickAddSuggestions = []string{
	"📧 Go through my emails",
	"💪 Squeeze in a workout",
	"📞 Give mom a call",
	"🛒 Pick up some groceries",
	"🧹 Tidy up the living room",
	"💊 Take my vitamins",
	"🚶 Go for a 20-min walk",
	"💤 Get to bed by 10pm",
	"🥗 Prep meals for the week",
	"📱 Catch up with a friend",
	"🪴 Water the plants",
	"🧘 10 minutes of meditation",
	"📖 Read for 30 minutes",
	"💧 Drink 8 glasses of water",
	"🛏️ Change the bed sheets",
	"📊 Review the project status",
	"✍️ Draft that proposal",
	"🗓️ Schedule team sync",
	"📝 Update meeting notes",
	"💻 Clear out Slack messages",
	"🎯 Set weekly goals",
	"📁 Organize desktop files",
	"🤝 Follow up on that lead",
	"📈 Check analytics dashboard",
	"💡 Brainstorm new ideas",
	"🔍 Research competitors",
	"📋 Review task backlog",
	"⏰ Block focus time on calendar",
	"🎤 Prepare presentation slides",
	"💼 Update LinkedIn profile",
	"🎵 Create a focus playlist",
	"📚 Finish that online course",
	"✨ Practice gratitude journaling",
	"🧠 Learn something new today",
	"🎨 Do something creative",
	"☕ Take a proper coffee break",
	"🌅 Watch the sunrise/sunset",
	"📓 Write in journal",
	"🏋️ Do a 15-min stretch routine",
	"🧩 Solve a puzzle or brain teaser",
	"🏦 Pay the bills",
	"📬 Check the mailbox",
	"🛠️ Fix that thing I've been avoiding",
	"🧺 Do a load of laundry",
	"🚗 Get the car washed",
	"📦 Return that online order",
	"🏪 Restock household supplies",
	"🗑️ Take out the trash",
	"🔧 Schedule maintenance appointment",
	"📄 File important documents",
}
