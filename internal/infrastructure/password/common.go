package password

var commonPasswords = []string{
	"123456", "123456789", "12345678", "password", "qwerty", "qwerty123", "1q2w3e4r",
	"12345", "1234567", "1234567890", "111111", "123123", "000000", "abc123",
	"password1", "password123", "passw0rd", "p@ssw0rd", "iloveyou", "admin", "admin123",
	"welcome", "welcome1", "letmein", "monkey", "dragon", "football", "baseball",
	"sunshine", "princess", "master", "shadow", "superman", "michael", "jennifer",
	"trustno1", "qwertyuiop", "asdfghjkl", "zxcvbnm", "1qaz2wsx", "qazwsx",
	"starwars", "whatever", "freedom", "hello123", "charlie", "donald", "batman",
	"login", "secret", "changeme", "computer", "internet", "solo", "access",
	"mustang", "michelle", "loveme", "flower", "hottie", "ashley", "bailey",
	"passpass", "987654321", "654321", "666666", "121212", "7777777", "88888888",
	"aa123456", "qwe123", "zaq12wsx", "google", "samsung", "pokemon", "cheese",
	"liverpool", "chelsea", "arsenal", "summer", "winter", "spring2024", "password!",
}
