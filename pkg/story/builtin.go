package story

// BuiltinTitle is the title of the story returned by [Builtin].
const BuiltinTitle = "Whales and unicorns"

// Builtin returns the story that ships with the game. It is used when no
// story file is configured.
func Builtin() *Script {
	return MustNew([]Beat{
		Scene("You are in the sea, up ahead you see lots of beautiful whales swimming."),
		Choice("You get closer. There are two whales. The whale on the left is a humpback whale with skateboards. The whale on the right is a blue whale with roller skates. Which whale do you want to ride?", AnswerRight),
		Scene("You are now transported by a fairy godmother into the sky."),
		Scene("You jump onto a unicorn and are riding high in the clouds."),
		Choice("There are two more unicorns above your head. The unicorn on the left is covered with unicorn dust. The unicorn on the right is covered with wee wee and poo poo. Which unicorn do you choose?", AnswerRight),
		Choice("Suddenly, you land in front of two fairy godmothers. The fairy godmother on the left is drinking two beers. The fairy godmother on the right is covered with rock and roll band guitars. Which fairy godmother do you speak to?", AnswerLeft),
		Scene("Now a giant poo brush comes along. It transports you to a new place."),
		Choice("You are now playing video games with one big finger. There is a game controller. The joystick on the left is silver. The buttons on the right are rainbow. Which control do you press?", AnswerLeft),
		Terminal("Amazing work, you have won a golden medal and a big enormous rainbow lollipop with silver and gold. I hope you will play again. Goodbye."),
	})
}
